package main

import (
	"github.com/exporter-installer/cmd/installer"
)

func main() {
	installer.Execute()
}

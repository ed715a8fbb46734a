package main

import "github.com/MaskRay/vscode-ccls/cmd/ccls-updater/cmd"

func main() {
	cmd.Execute()
}

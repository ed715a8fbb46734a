package main

import "github.com/MaskRay/vscode-ccls/cmd/ccls-packager/cmd"

func main() {
	cmd.Execute()
}

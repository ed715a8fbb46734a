package main

import "github.com/MaskRay/vscode-ccls/cmd/ccls-publisher/cmd"

func main() {
	cmd.Execute()
}

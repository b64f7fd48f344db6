package main

import (
	"github.com/xkilldash9x/promptfan/cmd"
)

func main() {
	cmd.Execute()
}

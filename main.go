// The main package for the lexcrawl executable.
package main

import "github.com/lexcorpus/crawler/cmd"

func main() {
	cmd.Execute()
}

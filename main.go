// Package main is the entry point of snippetcorpus, a service that harvests typing
// challenges from source repositories and serves them at random.
package main

import "snippetcorpus/cmd"

func main() {
	cmd.Execute()
}

// Command lawverdict collects newly published court judgments from the
// e-Courts judgment search portal.
package main

func main() {
	Execute()
}

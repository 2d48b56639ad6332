// Command fsmctl inspects state machine documents and drives persisted
// machine instances from the command line.
package main

func main() {
	Execute()
}

// flashctl is a command-line tool for creating and inspecting region
// store images.
package main

func main() {
	execute()
}

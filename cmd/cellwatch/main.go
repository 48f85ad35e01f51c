// cellwatch — manufacturing cell controller.
// Applies production orders to the cell's control state and fails safe
// on orders that do not fit the working buffer.
package main

import "github.com/ppiankov/cellwatch/internal/cli"

func main() {
	cli.Execute()
}

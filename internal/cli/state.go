package cli

import (
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/ppiankov/cellwatch/internal/client"
	"github.com/ppiankov/cellwatch/internal/config"
	"github.com/ppiankov/cellwatch/internal/controller"
	"github.com/ppiankov/cellwatch/internal/registers"
)

var (
	remoteAddr     string
	stateRegisters bool
)

func init() {
	rootCmd.AddCommand(stateCmd)
	rootCmd.AddCommand(resetCmd)
	defaultAddr := fmt.Sprintf("localhost:%d", config.DefaultPort)
	stateCmd.Flags().StringVar(&remoteAddr, "addr", defaultAddr, "Controller address (host:port)")
	stateCmd.Flags().BoolVar(&stateRegisters, "registers", false, "Print the state as gateway holding registers")
	resetCmd.Flags().StringVar(&remoteAddr, "addr", defaultAddr, "Controller address (host:port)")
}

var stateCmd = &cobra.Command{
	Use:   "state",
	Short: "Show the state of a running controller",
	Long: "Reads the controller state over gRPC. Fail-closed: when the controller\n" +
		"cannot be reached the reported state permits nothing and is marked compromised.\n" +
		"Exit code 1 if unreachable, 2 if compromised.",
	Args: cobra.NoArgs,
	RunE: runState,
}

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Reset a running controller to its power-on state",
	Args:  cobra.NoArgs,
	RunE:  runReset,
}

func runState(cmd *cobra.Command, args []string) error {
	c, err := client.New(remoteAddr)
	if err != nil {
		return err
	}
	defer c.Close()

	st, stateErr := c.State()
	if stateRegisters {
		printRegisters(st)
	} else if err := printJSON(st); err != nil {
		return err
	}
	if stateErr != nil {
		return stateErr
	}
	if st.Compromised {
		c.Close()
		os.Exit(2)
	}
	return nil
}

func runReset(cmd *cobra.Command, args []string) error {
	c, err := client.New(remoteAddr)
	if err != nil {
		return err
	}
	defer c.Close()

	st, err := c.Reset()
	if err != nil {
		return err
	}
	return printJSON(st)
}

func printRegisters(st controller.Snapshot) {
	m := registers.EncodeState(st).Map()
	addrs := make([]int, 0, len(m))
	for a := range m {
		addrs = append(addrs, a)
	}
	sort.Ints(addrs)
	for _, a := range addrs {
		fmt.Printf("%d\t%d\n", a, m[a])
	}
}

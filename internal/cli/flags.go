package cli

import "flag"

// ServeFlags holds the CLI flags for the serve command.
type ServeFlags struct {
	Port    int
	Config  string
	Verbose bool
}

// ParseServeFlags parses command line flags for the serve command.
func ParseServeFlags() *ServeFlags {
	flags := &ServeFlags{}
	flag.IntVar(&flags.Port, "port", 0, "Port to listen on (0 = from config)")
	flag.StringVar(&flags.Config, "config", "", "Path to config file")
	flag.BoolVar(&flags.Verbose, "verbose", false, "Verbose output")
	flag.Parse()
	return flags
}

// ReconcileFlags holds the CLI flags for the reconcile command.
type ReconcileFlags struct {
	LedgerPath string
	BankPath   string
	AccountID  int
	Rate       float64
	Top        int
	Config     string
	Verbose    bool
}

// ParseReconcileFlags parses command line flags for the reconcile command.
func ParseReconcileFlags() *ReconcileFlags {
	flags := &ReconcileFlags{}
	flag.StringVar(&flags.LedgerPath, "ledger", "", "Path to ledger rows JSON file")
	flag.StringVar(&flags.BankPath, "bank", "", "Path to bank rows JSON file")
	flag.IntVar(&flags.AccountID, "account", 0, "Account ID to reconcile")
	flag.Float64Var(&flags.Rate, "rate", 1.0, "Exchange rate to home currency")
	flag.IntVar(&flags.Top, "top", 3, "Candidates to show per bank transaction")
	flag.StringVar(&flags.Config, "config", "", "Path to config file")
	flag.BoolVar(&flags.Verbose, "verbose", false, "Verbose output")
	flag.Parse()
	return flags
}

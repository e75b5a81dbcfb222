package main

import (
	"github.com/jonathan/hiring-pipeline/internal/config"
	"github.com/jonathan/hiring-pipeline/internal/hiring"
	"github.com/jonathan/hiring-pipeline/internal/observability"
	"github.com/spf13/cobra"
)

var boardCmd = &cobra.Command{
	Use:   "board",
	Short: "Print a process board or a candidate",
	Long: `Prints the candidates of a hiring process grouped by interview step.
With --candidate-id, also prints that candidate's status and recent history.`,
	RunE: runBoard,
}

var (
	boardProcessID   string
	boardCandidateID string
)

func init() {
	boardCmd.Flags().StringVar(&boardProcessID, "process-id", "", "Process to print")
	boardCmd.Flags().StringVar(&boardCandidateID, "candidate-id", "", "Candidate to print")
	boardCmd.MarkFlagsOneRequired("process-id", "candidate-id")
	rootCmd.AddCommand(boardCmd)
}

func runBoard(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	opts, err := serviceOptions(cfg)
	if err != nil {
		return err
	}

	store, err := openBackend(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer store.close()

	svc := hiring.NewService(store, nil, nil, opts)
	printer := observability.NewPrinter(cmd.OutOrStdout())

	if boardProcessID != "" {
		view, err := svc.GetProcess(cmd.Context(), boardProcessID)
		if err != nil {
			return err
		}
		printer.PrintBoard(view)
	}
	if boardCandidateID != "" {
		candidate, err := svc.GetCandidate(cmd.Context(), boardCandidateID)
		if err != nil {
			return err
		}
		printer.PrintCandidate(candidate)
	}
	return nil
}

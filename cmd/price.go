package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/batimetric/pricing-engine/internal/export"
	"github.com/batimetric/pricing-engine/internal/model"
)

var priceCmd = &cobra.Command{
	Use:   "price",
	Short: "Price a task or a full proposal",
}

var (
	taskCategory string
	taskDuration string
	taskPhase    string
	taskRegion   string
	taskMargin   float64
	taskLabel    string
	taskQuantity float64
)

var priceTaskCmd = &cobra.Command{
	Use:   "task",
	Short: "Price a single labor task from flags",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		env, err := initEngine(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		// Same wiring as the engine, minus the catalog.
		task := model.Task{
			Label:    taskLabel,
			Category: taskCategory,
			Phase:    taskPhase,
			Duration: taskDuration,
			Quantity: taskQuantity,
		}
		proposal := model.Proposal{
			Metadata:         model.ProposalMetadata{Region: taskRegion},
			Tasks:            []model.Task{task},
			ContractorMargin: taskMargin,
		}
		result, err := env.Engine.PriceProposal(ctx, proposal)
		if err != nil {
			return err
		}
		if len(result.FailedLines) > 0 {
			return eris.Errorf("price: %s", result.FailedLines[0].Error)
		}

		return printJSON(result.PricedTasks[0])
	},
}

var (
	proposalFile string
	proposalXLSX string
)

var priceProposalCmd = &cobra.Command{
	Use:   "proposal",
	Short: "Price a proposal from a JSON file",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		raw, err := os.ReadFile(proposalFile)
		if err != nil {
			return eris.Wrapf(err, "read %s", proposalFile)
		}
		var proposal model.Proposal
		if err := json.Unmarshal(raw, &proposal); err != nil {
			return eris.Wrapf(err, "parse %s", proposalFile)
		}

		env, err := initEngine(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		start := time.Now()
		result, err := env.Engine.PriceProposal(ctx, proposal)
		if err != nil {
			return err
		}
		zap.L().Info("proposal priced",
			zap.Duration("elapsed", time.Since(start)),
			zap.Float64("total", result.Summary.Total),
		)

		if proposalXLSX != "" {
			if err := export.WriteXLSX(result, proposalXLSX); err != nil {
				return err
			}
			fmt.Fprintf(os.Stderr, "quote sheet written to %s\n", proposalXLSX)
		}

		return printJSON(result)
	},
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

func init() {
	priceTaskCmd.Flags().StringVar(&taskCategory, "category", "General", "task category")
	priceTaskCmd.Flags().StringVar(&taskDuration, "duration", "1h", `duration string, e.g. "2h", "1 day"`)
	priceTaskCmd.Flags().StringVar(&taskPhase, "phase", "Install", "phase: Prep | Install | Finish")
	priceTaskCmd.Flags().StringVar(&taskRegion, "region", "", "region name (e.g. ile-de-france)")
	priceTaskCmd.Flags().Float64Var(&taskMargin, "margin", 0, "contractor margin fraction (e.g. 0.15)")
	priceTaskCmd.Flags().StringVar(&taskLabel, "label", "", "task label (used for feedback lookup)")
	priceTaskCmd.Flags().Float64Var(&taskQuantity, "quantity", 1, "quantity")

	priceProposalCmd.Flags().StringVarP(&proposalFile, "file", "f", "", "proposal JSON file")
	priceProposalCmd.Flags().StringVar(&proposalXLSX, "xlsx", "", "also write an XLSX quote sheet to this path")
	priceProposalCmd.MarkFlagRequired("file")

	priceCmd.AddCommand(priceTaskCmd)
	priceCmd.AddCommand(priceProposalCmd)
	rootCmd.AddCommand(priceCmd)
}

package main

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/batimetric/pricing-engine/internal/adjust"
	"github.com/batimetric/pricing-engine/internal/model"
)

var feedbackCmd = &cobra.Command{
	Use:   "feedback",
	Short: "Record and inspect contractor price corrections",
}

var (
	fbProposalID string
	fbItemType   string
	fbLabel      string
	fbType       string
	fbActual     float64
	fbComment    string
)

var feedbackSaveCmd = &cobra.Command{
	Use:   "save",
	Short: "Append a correction to the ledger",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		env, err := initEngine(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		rec := model.Correction{
			ProposalID:   fbProposalID,
			ItemType:     model.ItemType(fbItemType),
			ItemLabel:    fbLabel,
			FeedbackType: model.FeedbackType(fbType),
			Comment:      fbComment,
		}
		if cmd.Flags().Changed("actual") {
			rec.ActualPrice = &fbActual
		}

		id, err := env.Ledger.Append(ctx, rec)
		if err != nil {
			return err
		}
		return printJSON(map[string]any{"status": "ok", "id": id})
	},
}

var feedbackListCmd = &cobra.Command{
	Use:   "list",
	Short: "Dump all ledger records, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		env, err := initEngine(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		records, err := env.Ledger.List(ctx)
		if err != nil {
			return err
		}
		return printJSON(records)
	},
}

var fbBase float64

var feedbackAdjustCmd = &cobra.Command{
	Use:   "adjust",
	Short: "Show the adjustment the ledger implies for a label and base price",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		env, err := initEngine(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		estimator := adjust.NewEstimator(env.Ledger)
		delta := estimator.Estimate(ctx, fbLabel, fbBase, time.Now().UTC())
		return printJSON(map[string]any{
			"item_label":     fbLabel,
			"base_price":     fbBase,
			"adjustment":     delta,
			"adjusted_price": fbBase + delta,
		})
	},
}

func init() {
	feedbackSaveCmd.Flags().StringVar(&fbProposalID, "proposal-id", "", "proposal id")
	feedbackSaveCmd.Flags().StringVar(&fbItemType, "item-type", "task", "item type: task or material")
	feedbackSaveCmd.Flags().StringVar(&fbLabel, "label", "", "item label")
	feedbackSaveCmd.Flags().StringVar(&fbType, "type", "", "feedback type: too_low | too_high | correct | other")
	feedbackSaveCmd.Flags().Float64Var(&fbActual, "actual", 0, "actual observed price")
	feedbackSaveCmd.Flags().StringVar(&fbComment, "comment", "", "free-text comment")
	feedbackSaveCmd.MarkFlagRequired("label")

	feedbackAdjustCmd.Flags().StringVar(&fbLabel, "label", "", "item label")
	feedbackAdjustCmd.Flags().Float64Var(&fbBase, "base", 0, "base price to adjust")
	feedbackAdjustCmd.MarkFlagRequired("label")

	feedbackCmd.AddCommand(feedbackSaveCmd)
	feedbackCmd.AddCommand(feedbackListCmd)
	feedbackCmd.AddCommand(feedbackAdjustCmd)
	rootCmd.AddCommand(feedbackCmd)
}

package main

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"book_creator/delivery"
	"book_creator/generator"
	"book_creator/session"
)

var editCmd = &cobra.Command{
	Use:   "edit",
	Short: "Edit the text of a PDF and write the result to a new PDF",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loadApp(cmd)
		if err != nil {
			return err
		}
		file, _ := cmd.Flags().GetString("file")
		instruction, _ := cmd.Flags().GetString("instruction")

		req := generator.EditRequest{Instruction: instruction}
		if file != "" {
			data, err := os.ReadFile(file)
			if err != nil {
				return err
			}
			req.Document = data
			req.Filename = filepath.Base(file)
		}

		sess := session.NewStore(0, nil).Create()
		res, err := a.runner.Edit(cmd.Context(), sess, req)
		if err != nil {
			return err
		}
		return printResult(a, sess.ID, delivery.KindEdited, res)
	},
}

func init() {
	editCmd.Flags().String("file", "", "path to the PDF to edit")
	editCmd.Flags().String("instruction", "", "what to edit in the PDF")
	rootCmd.AddCommand(editCmd)
}

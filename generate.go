package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"book_creator/delivery"
	"book_creator/generator"
	"book_creator/session"
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a book outline PDF from the command line",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loadApp(cmd)
		if err != nil {
			return err
		}
		flags := cmd.Flags()
		theme, _ := flags.GetString("theme")
		intro, _ := flags.GetString("intro")
		pages, _ := flags.GetInt("pages")
		genre, _ := flags.GetString("genre")

		sess := session.NewStore(0, nil).Create()
		res, err := a.runner.Generate(cmd.Context(), sess, generator.GenerationRequest{
			Theme: theme,
			Intro: intro,
			Pages: pages,
			Genre: genre,
		})
		if err != nil {
			return err
		}
		return printResult(a, sess.ID, delivery.KindOutline, res)
	},
}

func printResult(a *app, sessionID string, kind delivery.Kind, res *session.Result) error {
	path, err := a.outputs.Path(sessionID, kind)
	if err != nil {
		return err
	}
	fmt.Println(res.Completion.Text)
	fmt.Fprintf(os.Stderr, "PDF (%d pages) written to %s\n", res.Pages, path)
	return nil
}

func init() {
	generateCmd.Flags().String("theme", "", "theme of the book")
	generateCmd.Flags().String("intro", "", "general introduction")
	generateCmd.Flags().Int("pages", 1, "number of pages")
	generateCmd.Flags().String("genre", "", "type of book (Romance, Thriller, etc)")
	rootCmd.AddCommand(generateCmd)
}

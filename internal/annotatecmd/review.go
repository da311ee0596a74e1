package annotatecmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/prairie-archives/nerbench/internal/annotate"
	"github.com/prairie-archives/nerbench/internal/config"
	"github.com/prairie-archives/nerbench/internal/entity"
	"github.com/prairie-archives/nerbench/internal/workspace"
	"github.com/spf13/cobra"
)

// errQuit signals that the reviewer chose to abort without saving.
var errQuit = errors.New("review aborted")

// NewReviewCmd creates the review command
func NewReviewCmd() *cobra.Command {
	var configPath string
	var workspaceDir string

	cmd := &cobra.Command{
		Use:   "review [document]",
		Short: "Review a draft entity by entity into a gold standard file",
		Long: `Walk a draft's entities with an accept/reject/modify prompt and write the
reviewed result as the document's gold standard file.

Each entity is shown in context with [[[markers]]]. Accepting sets its
confidence to 1.0 and marks it reviewed; modifying can change the type,
re-slice the boundaries, and attach notes. After a snippet's entities you
can add anything the model missed. Skipping a snippet drops it from the
gold standard entirely.

Without a document argument, lists the drafts available for review.`,
		Example: `  # List drafts awaiting review
  nerbench annotate review

  # Review one document
  nerbench annotate review ptr_19260121`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			// Create a context that gets canceled on an interrupt signal (Ctrl+C)
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop() // Ensure the signal handler is cleaned up

			document := ""
			if len(args) > 0 {
				document = args[0]
			}
			return executeReview(ctx, configPath, workspaceDir, document)
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "Path to nerbench.yaml")
	cmd.Flags().StringVar(&workspaceDir, "workspace", "", "Test dataset directory (overrides config)")

	return cmd
}

func executeReview(ctx context.Context, configPath, workspaceDir, document string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if workspaceDir == "" {
		workspaceDir = cfg.Workspace
	}
	ws := workspace.New(workspaceDir)

	if document == "" {
		return listDrafts(ws)
	}

	draft, err := ws.LoadDraft(document)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("no draft found for %s, run 'nerbench annotate draft' first", document)
		}
		return err
	}

	fmt.Println(strings.Repeat("=", 80))
	fmt.Println("DRAFT REVIEW")
	fmt.Printf("Document: %s\n", document)
	fmt.Println(strings.Repeat("=", 80))
	fmt.Println()
	fmt.Printf("Title: %s\n", draft.Metadata.Title)
	fmt.Printf("Year: %s  Language: %s  Model: %s\n", draft.Metadata.Year, draft.Metadata.Language, draft.Model)
	fmt.Printf("Snippets: %d  Draft entities: %d\n", draft.TotalSnippets, draft.TotalEntities)

	in := annotate.NewLineReader(os.Stdin)
	fmt.Print("\nPress Enter to begin review (q quits at any prompt, Ctrl+C aborts)...")
	if _, err := in.ReadLine(ctx); err != nil {
		return interrupted(err)
	}

	r := annotate.NewReview(draft)
	gold, err := runReview(ctx, r, in, len(draft.Snippets))
	if err != nil {
		if errors.Is(err, errQuit) {
			fmt.Println("\nReview aborted. Nothing was written.")
			return nil
		}
		return interrupted(err)
	}

	if err := ws.SaveGold(gold); err != nil {
		return err
	}
	printGoldSummary(ws.GoldPath(document), gold)
	fmt.Println("\nReview complete.")

	return nil
}

// runReview drives the review state machine from stdin until every snippet
// is decided, returning the assembled gold standard.
func runReview(ctx context.Context, r *annotate.Review, in *annotate.LineReader, total int) (*workspace.AnnotationFile, error) {
	lastSnippet := -1
	for {
		switch r.State() {
		case annotate.StateDeciding:
			si, ei := r.Position()
			snippet, span, _ := r.Current()
			if si != lastSnippet {
				printSnippetBanner(snippet, si+1, total)
				lastSnippet = si
			}
			printEntityContext(snippet, span, ei)

			d, err := promptDecision(ctx, in)
			if err != nil {
				return nil, err
			}
			if d.Action == annotate.ActionModify {
				d, err = promptModify(ctx, in, snippet, span)
				if err != nil {
					return nil, err
				}
			}
			if err := r.Apply(d); err != nil {
				fmt.Printf("  %v\n", err)
			}

		case annotate.StateAdditions:
			si, _ := r.Position()
			snippet, _ := r.CurrentSnippet()
			if si != lastSnippet {
				printSnippetBanner(snippet, si+1, total)
				lastSnippet = si
			}
			if err := runAdditions(ctx, r, in, snippet); err != nil {
				return nil, err
			}

		case annotate.StateDone:
			return r.Gold()
		}
	}
}

func printSnippetBanner(s *workspace.AnnotatedSnippet, num, total int) {
	fmt.Println("\n" + strings.Repeat("#", 80))
	fmt.Printf("# SNIPPET %s (%d/%d)\n", s.SnippetID, num, total)
	fmt.Println(strings.Repeat("#", 80))
	if len(s.Entities) == 0 {
		fmt.Println("\nNo entities detected by the model.")
	}
}

func printEntityContext(s *workspace.AnnotatedSnippet, e *entity.Span, ei int) {
	fmt.Println("\n" + strings.Repeat("=", 80))
	fmt.Printf("Entity %d/%d\n", ei+1, len(s.Entities))
	fmt.Println(strings.Repeat("=", 80))
	fmt.Printf("\nContext: ...%s...\n", annotate.Highlight(s.Text, e.Start, e.End, 50, "[[[", "]]]"))
	fmt.Printf("\nEntity: %q  [%d, %d)\n", e.Text, e.Start, e.End)
	fmt.Printf("Type: %s (%s)\n", e.Type, e.Type.Description())

	source := e.Source
	if source == "" {
		source = "unknown"
	}
	fmt.Printf("Source: %s (confidence %.2f)\n", source, e.Confidence)
	if e.Notes != "" {
		fmt.Printf("Notes: %s\n", e.Notes)
	}
}

func promptDecision(ctx context.Context, in *annotate.LineReader) (annotate.Decision, error) {
	for {
		fmt.Println("\n" + strings.Repeat("-", 80))
		fmt.Print("Action? [(y)es/(n)o/(m)odify/(s)kip snippet/(q)uit]: ")
		line, err := in.ReadLine(ctx)
		if err != nil {
			return annotate.Decision{}, err
		}

		switch strings.ToLower(line) {
		case "y", "":
			fmt.Println("  Accepted")
			return annotate.Decision{Action: annotate.ActionAccept}, nil
		case "n":
			fmt.Println("  Rejected")
			return annotate.Decision{Action: annotate.ActionReject}, nil
		case "m":
			return annotate.Decision{Action: annotate.ActionModify}, nil
		case "s":
			fmt.Println("  Snippet skipped")
			return annotate.Decision{Action: annotate.ActionSkip}, nil
		case "q":
			return annotate.Decision{}, errQuit
		default:
			fmt.Println("Invalid choice. Use: y (yes), n (no), m (modify), s (skip snippet), q (quit)")
		}
	}
}

// promptModify collects the modify parameters: a replacement type, an
// optional boundary edit, and optional notes. Bad input falls back to the
// entity's current values rather than failing the decision.
func promptModify(ctx context.Context, in *annotate.LineReader, s *workspace.AnnotatedSnippet, e *entity.Span) (annotate.Decision, error) {
	d := annotate.Decision{Action: annotate.ActionModify, Type: e.Type}

	fmt.Println("\nModify entity:")
	printTypeLegend()
	fmt.Printf("New type (Enter to keep %s): ", e.Type)
	line, err := in.ReadLine(ctx)
	if err != nil {
		return annotate.Decision{}, err
	}
	if line != "" {
		t, perr := entity.ParseType(line)
		if perr != nil {
			fmt.Printf("  %v, keeping %s\n", perr, e.Type)
		} else {
			d.Type = t
			fmt.Printf("  Updated type to: %s\n", t)
		}
	}

	fmt.Print("Modify boundaries? (y/n): ")
	line, err = in.ReadLine(ctx)
	if err != nil {
		return annotate.Decision{}, err
	}
	if strings.EqualFold(line, "y") {
		start, err := promptInt(ctx, in, fmt.Sprintf("  Start position (current %d): ", e.Start))
		if err != nil {
			return annotate.Decision{}, err
		}
		end, err := promptInt(ctx, in, fmt.Sprintf("  End position (current %d): ", e.End))
		if err != nil {
			return annotate.Decision{}, err
		}
		switch {
		case start == nil || end == nil:
			fmt.Println("  Invalid input, keeping original boundaries")
		case *start < 0 || *start >= *end || *end > entity.TextLen(s.Text):
			fmt.Printf("  Boundary [%d, %d) is out of range, keeping original boundaries\n", *start, *end)
		default:
			d.Start = start
			d.End = end
			fmt.Printf("  Updated boundaries: %q\n", entity.Slice(s.Text, *start, *end))
		}
	}

	fmt.Print("Notes (optional): ")
	line, err = in.ReadLine(ctx)
	if err != nil {
		return annotate.Decision{}, err
	}
	d.Notes = line

	fmt.Println("  Modified and accepted")
	return d, nil
}

// runAdditions offers the add-missed pass for the snippet whose entities are
// all decided, then closes the snippet.
func runAdditions(ctx context.Context, r *annotate.Review, in *annotate.LineReader, s *workspace.AnnotatedSnippet) error {
	fmt.Print("\nAdd additional entities? (y/n): ")
	line, err := in.ReadLine(ctx)
	if err != nil {
		return err
	}
	if !strings.EqualFold(line, "y") {
		return r.FinishSnippet()
	}

	fmt.Println("\n" + strings.Repeat("-", 80))
	fmt.Println(s.Text)
	fmt.Println(strings.Repeat("-", 80))
	if kept := r.Kept(); len(kept) > 0 {
		fmt.Println("Current entities:")
		for i, e := range kept {
			fmt.Printf("  %d. %q (%s)\n", i+1, e.Text, e.Type)
		}
	}

	for {
		fmt.Print("\nEntity text (or Enter to finish): ")
		text, err := in.ReadLine(ctx)
		if err != nil {
			return err
		}
		if text == "" {
			break
		}

		occs := annotate.FindAllFold(s.Text, text)
		if len(occs) == 0 {
			fmt.Printf("  WARNING: %q not found in snippet.\n", text)
			continue
		}
		if len(occs) > 1 {
			fmt.Printf("  Found %d matches. Using all occurrences.\n", len(occs))
		}

		typ, err := promptType(ctx, in)
		if err != nil {
			return err
		}
		if typ == "" {
			fmt.Println("  Entity entry canceled.")
			continue
		}

		fmt.Print("  Notes (optional): ")
		notes, err := in.ReadLine(ctx)
		if err != nil {
			return err
		}

		n, err := r.AddMissed(text, typ, notes)
		if err != nil {
			fmt.Printf("  %v\n", err)
			continue
		}
		fmt.Printf("  Added %d: %q (%s)\n", n, text, typ)
	}

	return r.FinishSnippet()
}

func printTypeLegend() {
	fmt.Println("  Entity types:")
	for _, t := range entity.Types() {
		fmt.Printf("    %s: %s\n", t, t.Description())
	}
}

// promptType asks for a taxonomy type, re-prompting until the answer is in
// the closed set. Empty input cancels the entry and returns "".
func promptType(ctx context.Context, in *annotate.LineReader) (entity.Type, error) {
	printTypeLegend()
	for {
		fmt.Print("  Entity type (Enter to cancel): ")
		line, err := in.ReadLine(ctx)
		if err != nil {
			return "", err
		}
		if line == "" {
			return "", nil
		}
		t, perr := entity.ParseType(line)
		if perr != nil {
			fmt.Printf("  %v\n", perr)
			continue
		}
		return t, nil
	}
}

// promptInt reads an integer answer; a nil result means the input did not
// parse.
func promptInt(ctx context.Context, in *annotate.LineReader, prompt string) (*int, error) {
	fmt.Print(prompt)
	line, err := in.ReadLine(ctx)
	if err != nil {
		return nil, err
	}
	n, aerr := strconv.Atoi(line)
	if aerr != nil {
		return nil, nil
	}
	return &n, nil
}

func listDrafts(ws *workspace.Workspace) error {
	docs, err := ws.ListDrafts()
	if err != nil {
		return err
	}
	if len(docs) == 0 {
		fmt.Printf("No drafts in %s\n", ws.DraftsDir())
		fmt.Println("\nGenerate some first:")
		fmt.Println("  nerbench annotate draft --model <name>")
		return nil
	}

	fmt.Printf("%-28s %-10s %-24s %-6s\n", "Document", "Entities", "Model", "Gold")
	fmt.Println(strings.Repeat("-", 72))
	for _, docID := range docs {
		draft, err := ws.LoadDraft(docID)
		if err != nil {
			return err
		}
		fmt.Printf("%-28s %-10d %-24s %-6s\n",
			docID, draft.TotalEntities, draft.Model, yesNo(ws.GoldExists(docID)))
	}
	fmt.Printf("\nTotal: %d drafts\n", len(docs))
	return nil
}

func printGoldSummary(path string, gold *workspace.AnnotationFile) {
	fmt.Println("\n" + strings.Repeat("=", 80))
	fmt.Printf("Gold standard saved to: %s\n", path)
	fmt.Printf("  Total snippets: %d\n", gold.TotalSnippets)
	fmt.Printf("  Total entities: %d\n", gold.TotalEntities)

	counts := gold.CountByType()
	fmt.Println("\n  Entity breakdown:")
	for _, t := range entity.Types() {
		fmt.Printf("    %-5s %d\n", t, counts[t])
	}
	fmt.Println(strings.Repeat("=", 80))
}

// interrupted maps a context cancellation to a clean exit message; any other
// error passes through.
func interrupted(err error) error {
	if errors.Is(err, context.Canceled) {
		fmt.Println("\nInterrupted. Nothing was written.")
		return nil
	}
	return err
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "-"
}

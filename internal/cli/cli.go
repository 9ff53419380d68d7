// Package cli implements the bookbot commands on top of a library workspace.
package cli

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"

	"library-backend/internal/documents"
	"library-backend/internal/ingest"
	"library-backend/internal/library"
	"library-backend/internal/progress"
	"library-backend/internal/qa"
	"library-backend/internal/qacache"
	"library-backend/internal/shared/apperr"
)

// ErrUsage is returned for unknown commands or missing arguments.
var ErrUsage = errors.New("usage")

const usage = `Usage: bookbot <command> [arguments]

Commands:
  upload [-name NAME] FILE.pdf   store, index and catalog a PDF
  list                           list cataloged documents
  ask DOCUMENT_ID QUESTION...    ask a question about a document
  history DOCUMENT_ID            show previous questions, newest first
  view DOCUMENT_ID               print a URL for reading the PDF
  delete DOCUMENT_ID             remove a document everywhere
  books                          list books known to the indexing service
  chunks DOCUMENT_ID             show the text the indexing service stored
`

// CLI runs commands for the owner of its workspace.
type CLI struct {
	WS  *library.Workspace
	Out io.Writer
	// NoProgress disables the upload progress bar.
	NoProgress bool
}

// Run dispatches args[0] to its command.
func (c *CLI) Run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		fmt.Fprint(c.Out, usage)
		return ErrUsage
	}
	cmd, rest := args[0], args[1:]
	switch cmd {
	case "upload":
		return c.upload(ctx, rest)
	case "list", "ls":
		return c.list(ctx)
	case "ask":
		return c.ask(ctx, rest)
	case "history":
		return c.history(ctx, rest)
	case "view":
		return c.view(ctx, rest)
	case "delete", "rm":
		return c.delete(ctx, rest)
	case "books":
		return c.books(ctx)
	case "chunks":
		return c.chunks(ctx, rest)
	case "help", "-h", "--help":
		fmt.Fprint(c.Out, usage)
		return nil
	default:
		fmt.Fprintf(c.Out, "unknown command %q\n\n%s", cmd, usage)
		return ErrUsage
	}
}

// Shell reads one command per line from in until EOF or "exit". Command
// errors are printed and do not end the session.
func (c *CLI) Shell(ctx context.Context, in io.Reader) error {
	prompt := color.New(color.FgGreen).FprintfFunc()
	scanner := bufio.NewScanner(in)
	for {
		prompt(c.Out, "bookbot> ")
		if !scanner.Scan() {
			fmt.Fprintln(c.Out)
			return scanner.Err()
		}
		args := strings.Fields(scanner.Text())
		if len(args) == 0 {
			continue
		}
		if args[0] == "exit" || args[0] == "quit" {
			return nil
		}
		if err := c.Run(ctx, args); err != nil && !errors.Is(err, ErrUsage) {
			c.Fail(err)
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
}

// Fail prints err the way commands report failures.
func (c *CLI) Fail(err error) {
	color.New(color.FgRed).Fprintf(c.Out, "error: %s\n", describe(err))
}

func (c *CLI) upload(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("upload", flag.ContinueOnError)
	fs.SetOutput(c.Out)
	name := fs.String("name", "", "display name (defaults to the file name)")
	if err := fs.Parse(args); err != nil {
		return ErrUsage
	}
	if fs.NArg() != 1 {
		fmt.Fprint(c.Out, usage)
		return ErrUsage
	}
	path := fs.Arg(0)

	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		return err
	}
	contentType, err := sniff(f)
	if err != nil {
		return err
	}
	if strings.TrimSpace(*name) == "" {
		*name = filepath.Base(path)
	}

	onProgress := func(float64) {}
	var bar *progressbar.ProgressBar
	if !c.NoProgress {
		bar = newProgressBar(c.Out, "Uploading "+*name)
		onProgress = func(p float64) { _ = bar.Set(int(p)) }
	}

	doc, err := c.WS.Controller.Ingest(ctx, ingest.Upload{
		Name:        *name,
		ContentType: contentType,
		SizeBytes:   info.Size(),
		Body:        f,
	}, onProgress)
	if bar != nil {
		if err == nil {
			_ = bar.Set(int(progress.Done))
		}
		_ = bar.Close()
		fmt.Fprintln(c.Out)
	}
	if err != nil {
		return err
	}
	color.New(color.FgGreen).Fprintf(c.Out, "Uploaded %s\n", doc.Name)
	fmt.Fprintf(c.Out, "id: %s\n", doc.ID)
	return nil
}

func (c *CLI) list(ctx context.Context) error {
	docs, err := c.WS.Controller.ListDocuments(ctx)
	if err != nil {
		return err
	}
	if len(docs) == 0 {
		fmt.Fprintln(c.Out, "No documents yet.")
		return nil
	}
	tw := tabwriter.NewWriter(c.Out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tSIZE\tUPLOADED")
	for _, d := range docs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", d.ID, d.Name, humanSize(d.SizeBytes), d.UploadedAt.Local().Format(time.DateTime))
	}
	return tw.Flush()
}

func (c *CLI) ask(ctx context.Context, args []string) error {
	if len(args) < 2 {
		fmt.Fprint(c.Out, usage)
		return ErrUsage
	}
	doc, err := c.WS.Controller.GetDocument(ctx, args[0])
	if err != nil {
		return err
	}
	question := strings.Join(args[1:], " ")
	ref := qacache.DocumentRef{ID: doc.ID, Name: doc.Name}
	if _, err := c.WS.QA.Load(ctx, ref); err != nil {
		c.warn(err)
	}

	answer, err := c.WS.Controller.AskQuestion(ctx, doc.Name, question)
	if err != nil {
		return err
	}
	color.New(color.FgCyan).Fprintln(c.Out, answer)

	if _, err := c.WS.QA.Append(ctx, ref, question, answer); err != nil {
		if !errors.Is(err, apperr.ErrPersistence) && !errors.Is(err, apperr.ErrValidation) {
			return err
		}
		c.warn(err)
	}
	return nil
}

func (c *CLI) history(ctx context.Context, args []string) error {
	if len(args) != 1 {
		fmt.Fprint(c.Out, usage)
		return ErrUsage
	}
	doc, err := c.WS.Controller.GetDocument(ctx, args[0])
	if err != nil {
		return err
	}
	records, err := c.WS.QA.Load(ctx, qacache.DocumentRef{ID: doc.ID, Name: doc.Name})
	if err != nil {
		if !errors.Is(err, apperr.ErrSync) {
			return err
		}
		c.warn(err)
	}
	printHistory(c.Out, doc, records)
	return nil
}

func (c *CLI) view(ctx context.Context, args []string) error {
	if len(args) != 1 {
		fmt.Fprint(c.Out, usage)
		return ErrUsage
	}
	doc, err := c.WS.Controller.GetDocument(ctx, args[0])
	if err != nil {
		return err
	}
	u, err := c.WS.Controller.ViewURL(ctx, doc.FileHandle)
	if err != nil {
		return err
	}
	fmt.Fprintln(c.Out, u)
	return nil
}

func (c *CLI) delete(ctx context.Context, args []string) error {
	if len(args) != 1 {
		fmt.Fprint(c.Out, usage)
		return ErrUsage
	}
	doc, err := c.WS.Controller.GetDocument(ctx, args[0])
	if err != nil {
		return err
	}
	if err := c.WS.Controller.DeleteDocument(ctx, doc.FileHandle, doc.ID, doc.Name); err != nil {
		return err
	}
	if err := c.WS.QA.Forget(ctx, doc.ID); err != nil {
		c.warn(err)
	}
	color.New(color.FgGreen).Fprintf(c.Out, "Deleted %s\n", doc.Name)
	return nil
}

func (c *CLI) books(ctx context.Context) error {
	books, err := c.WS.Controller.IndexedBooks(ctx)
	if err != nil {
		return err
	}
	if len(books) == 0 {
		fmt.Fprintln(c.Out, "No indexed books.")
		return nil
	}
	for _, b := range books {
		fmt.Fprintln(c.Out, b)
	}
	return nil
}

func (c *CLI) chunks(ctx context.Context, args []string) error {
	if len(args) != 1 {
		fmt.Fprint(c.Out, usage)
		return ErrUsage
	}
	doc, err := c.WS.Controller.GetDocument(ctx, args[0])
	if err != nil {
		return err
	}
	chunks, err := c.WS.Controller.IndexedChunks(ctx, doc.Name)
	if err != nil {
		return err
	}
	if len(chunks) == 0 {
		fmt.Fprintf(c.Out, "Nothing indexed for %s.\n", doc.Name)
		return nil
	}
	id := color.New(color.FgBlue)
	for _, ch := range chunks {
		id.Fprintf(c.Out, "#%s ", ch.ID)
		fmt.Fprintln(c.Out, ch.Text)
	}
	return nil
}

func (c *CLI) warn(err error) {
	color.New(color.FgYellow).Fprintf(c.Out, "warning: %s\n", apperr.MessageOf(err))
}

func describe(err error) string {
	if errors.Is(err, documents.ErrNotFound) {
		return "document not found"
	}
	return apperr.MessageOf(err)
}

func printHistory(w io.Writer, doc documents.Document, records []qa.Record) {
	if len(records) == 0 {
		fmt.Fprintf(w, "No questions asked about %s yet.\n", doc.Name)
		return
	}
	q := color.New(color.FgGreen, color.Bold)
	for _, r := range records {
		q.Fprintf(w, "[%s] Q: %s\n", r.Timestamp.Local().Format(time.DateTime), r.Question)
		fmt.Fprintf(w, "A: %s\n\n", r.Answer)
	}
}

// sniff detects the content type from the first bytes of f and rewinds it.
func sniff(f *os.File) (string, error) {
	head := make([]byte, 512)
	n, err := io.ReadFull(f, head)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return "", err
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return "", err
	}
	return http.DetectContentType(head[:n]), nil
}

func newProgressBar(w io.Writer, description string) *progressbar.ProgressBar {
	return progressbar.NewOptions(int(progress.Done),
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription(color.BlueString(description)),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "█",
			SaucerHead:    "█",
			SaucerPadding: "░",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetRenderBlankState(true),
	)
}

func humanSize(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}

package command

import (
	"context"
	"fmt"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/booklend-go/internal/cli/repl"
	"github.com/yndnr/booklend-go/internal/core/catalog"
	"github.com/yndnr/booklend-go/internal/core/domain"
)

// BookCommand returns the book subcommand group.
func BookCommand() *cli.Command {
	return &cli.Command{
		Name:    "book",
		Aliases: []string{"books"},
		Usage:   "Browse and manage catalog books",
		Subcommands: []*cli.Command{
			{
				Name:    "list",
				Aliases: []string{"ls"},
				Usage:   "List all books",
				Action:  bookList,
			},
			{
				Name:      "get",
				Aliases:   []string{"show"},
				Usage:     "Show a book",
				ArgsUsage: "ID",
				Action:    bookGet,
			},
			{
				Name:   "add",
				Usage:  "Add a book",
				Flags:  bookFlags(true),
				Action: bookAdd,
			},
			{
				Name:      "edit",
				Usage:     "Edit a book; only the given fields change",
				ArgsUsage: "ID",
				Flags:     bookFlags(false),
				Action:    bookEdit,
			},
			{
				Name:      "delete",
				Aliases:   []string{"rm"},
				Usage:     "Delete a book",
				ArgsUsage: "ID",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:    "force",
						Aliases: []string{"f"},
						Usage:   "Skip confirmation",
					},
				},
				Action: bookDelete,
			},
		},
	}
}

// bookFlags returns the form field flags. On add, available defaults to true.
func bookFlags(adding bool) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "title", Aliases: []string{"t"}, Usage: "Title"},
		&cli.StringFlag{Name: "author", Aliases: []string{"a"}, Usage: "Author"},
		&cli.StringFlag{Name: "description", Aliases: []string{"d"}, Usage: "Description"},
		&cli.StringFlag{Name: "genre", Aliases: []string{"g"}, Usage: "Genre"},
		&cli.StringFlag{Name: "year", Aliases: []string{"y"}, Usage: "Publication year"},
		&cli.StringFlag{Name: "price", Usage: "Price (e.g. 12.50)"},
		&cli.BoolFlag{Name: "available", Value: adding, Usage: "Available for lending"},
	}
}

// patchFromFlags collects the flags the user actually set.
func patchFromFlags(c *cli.Context) catalog.FormPatch {
	var p catalog.FormPatch
	str := func(name string) *string {
		if !c.IsSet(name) {
			return nil
		}
		v := c.String(name)
		return &v
	}
	p.Title = str("title")
	p.Author = str("author")
	p.Description = str("description")
	p.Genre = str("genre")
	p.Year = str("year")
	p.Price = str("price")
	if c.IsSet("available") {
		v := c.Bool("available")
		p.Available = &v
	}
	return p
}

func bookID(c *cli.Context) (string, error) {
	id := strings.TrimSpace(c.Args().First())
	if id == "" {
		return "", domain.ErrMissingArgument.WithDetails("book ID is required")
	}
	return id, nil
}

func bookList(c *cli.Context) error {
	rt, err := runtimeFrom(c)
	if err != nil {
		return err
	}
	svc, err := rt.Catalog(c.Context)
	if err != nil {
		return err
	}

	stop := rt.Spin("Loading books")
	books, err := rt.listOp.Run(c.Context, svc.List)
	stop()
	if err != nil {
		return err
	}

	if len(books) == 0 {
		rt.Notice("No books in the catalog.")
		return nil
	}
	return rt.Print(books)
}

func bookGet(c *cli.Context) error {
	rt, err := runtimeFrom(c)
	if err != nil {
		return err
	}
	id, err := bookID(c)
	if err != nil {
		return err
	}
	svc, err := rt.Catalog(c.Context)
	if err != nil {
		return err
	}

	book, err := svc.Get(c.Context, id)
	if err != nil {
		return err
	}
	return rt.Print(book)
}

func bookAdd(c *cli.Context) error {
	rt, err := runtimeFrom(c)
	if err != nil {
		return err
	}
	svc, err := rt.Catalog(c.Context)
	if err != nil {
		return err
	}

	form := catalog.NewForm().Apply(patchFromFlags(c))
	book, err := rt.saveOp.Run(c.Context, func(ctx context.Context) (domain.Book, error) {
		return svc.Create(ctx, form)
	})
	if err != nil {
		return err
	}

	rt.Notice("✓ Book added")
	return rt.Print(book)
}

func bookEdit(c *cli.Context) error {
	rt, err := runtimeFrom(c)
	if err != nil {
		return err
	}
	id, err := bookID(c)
	if err != nil {
		return err
	}
	patch := patchFromFlags(c)
	if patch.Empty() {
		return domain.ErrMissingArgument.WithDetails("nothing to change; pass at least one field flag")
	}
	svc, err := rt.Catalog(c.Context)
	if err != nil {
		return err
	}

	current, err := svc.Get(c.Context, id)
	if err != nil {
		return err
	}

	form := catalog.FormFromBook(current).Apply(patch)
	book, err := rt.saveOp.Run(c.Context, func(ctx context.Context) (domain.Book, error) {
		return svc.Update(ctx, id, form)
	})
	if err != nil {
		return err
	}

	rt.Notice("✓ Book updated")
	return rt.Print(book)
}

func bookDelete(c *cli.Context) error {
	rt, err := runtimeFrom(c)
	if err != nil {
		return err
	}
	id, err := bookID(c)
	if err != nil {
		return err
	}
	svc, err := rt.Catalog(c.Context)
	if err != nil {
		return err
	}

	if !c.Bool("force") {
		fmt.Fprintf(rt.errOut, "Delete book %s? [y/N] ", id)
		// EOF or a read error counts as "no".
		answer, _ := repl.ReadLine(rt.in)
		answer = strings.ToLower(strings.TrimSpace(answer))
		if answer != "y" && answer != "yes" {
			fmt.Fprintln(rt.errOut, "Cancelled")
			return nil
		}
	}

	_, err = rt.deleteOp.Run(c.Context, func(ctx context.Context) (string, error) {
		return id, svc.Delete(ctx, id)
	})
	if err != nil {
		return err
	}

	rt.Notice("✓ Book %s deleted", id)
	return nil
}

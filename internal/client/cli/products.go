package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/dmitrijs2005/productkeeper/internal/client/client"
)

func (a *App) List(ctx context.Context) error {
	list, err := a.client.ListProducts(ctx)
	if err != nil {
		a.report(err)
		return err
	}

	if len(list) == 0 {
		fmt.Fprintln(a.out, "No products")
		return nil
	}

	tw := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tPRICE\tOWNER\tIMAGE")
	for _, p := range list {
		image := p.Image
		if p.ImageURL != "" {
			image = p.ImageURL
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", p.ID, p.Name, p.Price, p.UserID, image)
	}
	return tw.Flush()
}

// Create prompts for the product fields and an image path, then uploads.
func (a *App) Create(ctx context.Context) error {
	name, err := getSimpleText(a.reader, "Enter product name", a.out)
	if err != nil {
		return err
	}
	description, err := getMultiline(a.reader, "Enter description", a.out)
	if err != nil {
		return err
	}
	price, err := getSimpleText(a.reader, "Enter price", a.out)
	if err != nil {
		return err
	}
	path, err := getSimpleText(a.reader, "Enter image path", a.out)
	if err != nil {
		return err
	}

	f, err := os.Open(path)
	if err != nil {
		a.report(err)
		return err
	}
	defer f.Close()

	p, err := a.client.CreateProduct(ctx, client.ProductInput{Name: name, Description: description, Price: price}, filepath.Base(path), f)
	if err != nil {
		a.report(err)
		return err
	}

	fmt.Fprintf(a.out, "Created product %s\n", p.ID)
	return nil
}

// Delete removes product id, prompting for it when empty.
func (a *App) Delete(ctx context.Context, id string) error {
	if id == "" {
		var err error
		if id, err = getSimpleText(a.reader, "Enter product id to delete", a.out); err != nil {
			return err
		}
	}

	p, err := a.client.DeleteProduct(ctx, id)
	if err != nil {
		a.report(err)
		return err
	}

	fmt.Fprintf(a.out, "Deleted product %s (%s)\n", p.ID, p.Name)
	return nil
}

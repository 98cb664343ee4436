package cli

import (
	"context"
	"fmt"
	"log"

	"github.com/dmitrijs2005/productkeeper/internal/client/client"
	"github.com/dmitrijs2005/productkeeper/internal/common"
)

// getSimpleText, getMultiline and getPassword are indirections used to
// facilitate testing.
var (
	getSimpleText = GetSimpleText
	getMultiline  = GetMultiline
	getPassword   = GetPassword
)

// Register prompts for the account fields and creates the account. The
// password byte slice is wiped before returning.
func (a *App) Register(ctx context.Context) error {
	var in client.RegisterInput
	var err error

	for _, p := range []struct {
		prompt string
		dst    *string
	}{
		{"Enter first name", &in.FirstName},
		{"Enter last name", &in.LastName},
		{"Enter email", &in.Email},
	} {
		if *p.dst, err = getSimpleText(a.reader, p.prompt, a.out); err != nil {
			return err
		}
	}

	password, err := getPassword(a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)
	in.Password = string(password)

	u, err := a.client.Register(ctx, in)
	if err != nil {
		a.report(err)
		return err
	}

	fmt.Fprintf(a.out, "Registered %s (%s)\n", u.Email, u.ID)
	return nil
}

// Login prompts for credentials and opens a session.
func (a *App) Login(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}

	password, err := getPassword(a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	s, err := a.client.Login(ctx, email, password)
	if err != nil {
		log.Printf("Login unsuccessful")
		a.report(err)
		return err
	}

	a.userName = s.User.Email
	log.Printf("Login successful, token valid until %s", s.ExpiresAt.Local().Format("2006-01-02 15:04:05"))
	return nil
}

// Logout revokes the session on the server and forgets it locally.
func (a *App) Logout(ctx context.Context) error {
	err := a.client.Logout(ctx)
	a.userName = ""
	if err != nil {
		a.report(err)
		return err
	}
	log.Printf("Logged out")
	return nil
}

func (a *App) Me(ctx context.Context) error {
	u, err := a.client.Me(ctx)
	if err != nil {
		a.report(err)
		return err
	}

	fmt.Fprintf(a.out, "ID:         %s\n", u.ID)
	fmt.Fprintf(a.out, "Name:       %s %s\n", u.FirstName, u.LastName)
	fmt.Fprintf(a.out, "Email:      %s\n", u.Email)
	fmt.Fprintf(a.out, "Registered: %s\n", u.CreatedAt.Local().Format("2006-01-02 15:04:05"))
	return nil
}

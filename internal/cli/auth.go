package cli

import (
	"context"
	"flag"
	"fmt"
	"time"

	"gastos/internal/api"
	"gastos/internal/core"
	"gastos/internal/session"
)

func (a *App) runLogin(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("login", flag.ContinueOnError)
	email := fs.String("email", "", "account email")
	password := fs.String("password", "", "account password (prompted when omitted)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var err error
	if *email == "" {
		if *email, err = readLine("Email: "); err != nil {
			return err
		}
	}
	if *password == "" {
		if *password, err = readPassword("Password: "); err != nil {
			return err
		}
	}

	if err := a.session.Login(ctx, core.Credentials{Email: *email, Password: *password}); err != nil {
		return err
	}

	user := a.session.User()
	fmt.Fprintf(a.out, "Signed in as %s <%s>\n", user.Nome, user.Email)
	if tenant := a.session.Tenant(); tenant != nil {
		fmt.Fprintf(a.out, "Active tenant: %s\n", tenant.Nome)
	} else {
		fmt.Fprintln(a.out, "No tenants yet (run 'gastos tenants create <nome>')")
	}
	return nil
}

func (a *App) runRegister(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("register", flag.ContinueOnError)
	nome := fs.String("nome", "", "display name")
	email := fs.String("email", "", "account email")
	password := fs.String("password", "", "account password (prompted when omitted)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var err error
	if *nome == "" {
		if *nome, err = readLine("Nome: "); err != nil {
			return err
		}
	}
	if *email == "" {
		if *email, err = readLine("Email: "); err != nil {
			return err
		}
	}
	if *password == "" {
		if *password, err = readPassword("Password: "); err != nil {
			return err
		}
	}

	if err := a.session.Register(ctx, core.Registration{
		Nome: *nome, Email: *email, Password: *password,
	}); err != nil {
		return err
	}

	fmt.Fprintf(a.out, "Account created for %s\n", *email)
	return nil
}

func (a *App) runLogout(ctx context.Context) error {
	if err := a.session.Logout(ctx); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Signed out")
	return nil
}

func (a *App) runWhoami(ctx context.Context) error {
	if err := a.requireAuth(); err != nil {
		return err
	}

	user := a.session.User()
	fmt.Fprintf(a.out, "%s <%s>\n", user.Nome, user.Email)

	if tenant := a.session.Tenant(); tenant != nil {
		fmt.Fprintf(a.out, "Tenant: %s (%s)\n", tenant.Nome, tenant.ID)
	}

	// Token claims are display-only; the backend decides validity.
	if client, ok := a.backend.(*api.Client); ok {
		if info, err := session.InspectToken(client.Token()); err == nil {
			if info.Subject != "" {
				fmt.Fprintf(a.out, "Token subject: %s\n", info.Subject)
			}
			if !info.ExpiresAt.IsZero() {
				fmt.Fprintf(a.out, "Token expires: %s", info.ExpiresAt.Format("2006-01-02 15:04 MST"))
				if info.Expired(time.Now()) {
					fmt.Fprint(a.out, " (expired)")
				}
				fmt.Fprintln(a.out)
			}
		}
	}
	return nil
}

package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"gastos/internal/backend"
	"gastos/internal/config"
	"gastos/internal/core"
	"gastos/internal/events"
	"gastos/internal/log"
	"gastos/internal/pages"
	"gastos/internal/session"
)

const usage = `Usage: gastos <command> [arguments]

Account:
  login                      sign in and store the session
  register                   create an account and sign in
  logout                     drop the stored session
  whoami                     show the signed-in user and token claims

Tenants:
  tenants                    list tenants (* marks the active one)
  tenants create <nome>      create a tenant and switch to it
  tenants join <id>          join a tenant by id and switch to it
  tenants select <id>        switch the active tenant
  tenants users              list members of the active tenant

Gastos:
  list [-grupo g] [-categoria c] [-search s]
  add -valor V -categoria C -descricao D [-grupo G] [-data YYYY-MM-DD]
  edit <id> [-valor V] [-categoria C] [-descricao D] [-grupo G] [-data YYYY-MM-DD]
  rm <id>

Organization:
  categorias [add <nome> <tipo> | rm <id>]
  grupos [add <nome> <tipo> | rm <id>]

Reports:
  dashboard [-refresh]       aggregate totals for the active tenant
  export                     append the tenant's gastos to Google Sheets
`

// App wires the backend, session and pages behind the subcommands.
type App struct {
	cfg     *config.Config
	logger  *log.Logger
	backend backend.Backend
	cleanup backend.CleanupFunc
	session *session.Manager
	dash    *pages.DashboardPage
	out     io.Writer

	publisher *events.Publisher
}

func NewApp(ctx context.Context, cfg *config.Config, logger *log.Logger) (*App, error) {
	result, err := backend.Create(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	app := &App{
		cfg:     cfg,
		logger:  logger.WithComponent(log.ComponentCLI),
		backend: result.Backend,
		cleanup: result.Cleanup,
		session: session.NewManager(result.Backend, logger),
		dash:    pages.NewDashboardPage(result.Backend, logger),
		out:     os.Stdout,
	}

	if err := app.session.Initialize(ctx); err != nil {
		app.Close()
		return nil, err
	}
	return app, nil
}

func (a *App) Close() {
	if a.publisher != nil {
		if err := a.publisher.Close(); err != nil {
			a.logger.Warn("closing event publisher", log.FieldError, err)
		}
	}
	if a.cleanup != nil {
		if err := a.cleanup(); err != nil {
			a.logger.Warn("backend cleanup", log.FieldError, err)
		}
	}
}

// Run dispatches a subcommand. Errors come back to main for exit-code
// handling; normal output goes to stdout.
func (a *App) Run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		fmt.Fprint(a.out, usage)
		return nil
	}

	cmd, rest := args[0], args[1:]
	switch cmd {
	case "login":
		return a.runLogin(ctx, rest)
	case "register":
		return a.runRegister(ctx, rest)
	case "logout":
		return a.runLogout(ctx)
	case "whoami":
		return a.runWhoami(ctx)
	case "tenants":
		return a.runTenants(ctx, rest)
	case "list":
		return a.runList(ctx, rest)
	case "add":
		return a.runAdd(ctx, rest)
	case "edit":
		return a.runEdit(ctx, rest)
	case "rm":
		return a.runRemove(ctx, rest)
	case "categorias":
		return a.runCategorias(ctx, rest)
	case "grupos":
		return a.runGrupos(ctx, rest)
	case "dashboard":
		return a.runDashboard(ctx, rest)
	case "export":
		return a.runExport(ctx)
	case "help", "-h", "--help":
		fmt.Fprint(a.out, usage)
		return nil
	default:
		return fmt.Errorf("unknown command %q (run 'gastos help')", cmd)
	}
}

func (a *App) requireAuth() error {
	if !a.session.IsAuthenticated() {
		return fmt.Errorf("not signed in (run 'gastos login')")
	}
	return nil
}

func (a *App) requireTenant() (*core.Tenant, error) {
	if err := a.requireAuth(); err != nil {
		return nil, err
	}
	tenant := a.session.Tenant()
	if tenant == nil {
		return nil, fmt.Errorf("no tenant available (run 'gastos tenants create <nome>')")
	}
	return tenant, nil
}

// publishGastoEvent notifies the configured broker about a mutation.
// Publishing is best effort: failures are logged, never returned.
func (a *App) publishGastoEvent(ctx context.Context, event string, g *core.Gasto) {
	if !a.cfg.EventsConfigured() {
		return
	}

	if a.publisher == nil {
		p, err := events.NewPublisher(a.cfg.AMQPURL, a.cfg.AMQPExchange, a.cfg.AMQPQueue, a.logger)
		if err != nil {
			a.logger.WarnContext(ctx, "event publisher unavailable", log.FieldError, err)
			return
		}
		a.publisher = p
	}

	msg := events.NewGastoEventMessage(event, g.ID, g.TenantID, g.Valor)
	if err := a.publisher.PublishGastoEvent(ctx, msg); err != nil {
		a.logger.WarnContext(ctx, "event publish failed",
			log.FieldGastoID, g.ID,
			log.FieldError, err)
	}
}

func (a *App) gastosPage(ctx context.Context) (*pages.GastosPage, error) {
	if _, err := a.requireTenant(); err != nil {
		return nil, err
	}
	p := pages.NewGastosPage(a.backend, a.logger)
	if err := p.Load(ctx); err != nil {
		return nil, err
	}
	return p, nil
}

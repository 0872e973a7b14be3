package router

import (
	"database/sql"
	"net/http"

	_ "pet-health-sharing/docs"
	mem "pet-health-sharing/internal/adapters/storage/memory"
	pg "pet-health-sharing/internal/adapters/storage/postgres"
	"pet-health-sharing/internal/domain/accessgrants"
	"pet-health-sharing/internal/domain/authz"
	"pet-health-sharing/internal/domain/pets"
	"pet-health-sharing/internal/domain/principals"
	"pet-health-sharing/internal/domain/records"
	"pet-health-sharing/internal/middleware"
	"pet-health-sharing/internal/platform/logger"
	"pet-health-sharing/internal/ports/auth"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	httpSwagger "github.com/swaggo/http-swagger"
)

type Options struct {
	AuthVerifier auth.AuthVerifier // puede ser nil (modo dev)

	// Opcional: si viene, usa Postgres. Si no, in-memory.
	DB *sql.DB

	Logger logger.Logger

	// Opcional: solo en modo jwt, el registro devuelve un token.
	TokenIssuer principals.TokenIssuer
}

type repos struct {
	people  principals.Repository
	pets    pets.Repository
	grants  accessgrants.Repository
	records records.Repository
}

func newRepos(db *sql.DB) repos {
	if db != nil {
		return repos{
			people:  pg.NewPrincipalsRepo(db),
			pets:    pg.NewPetsRepo(db),
			grants:  pg.NewAccessGrantsRepo(db),
			records: pg.NewRecordsRepo(db),
		}
	}
	return repos{
		people:  mem.NewPrincipalRepo(),
		pets:    mem.NewPetRepo(),
		grants:  mem.NewAccessGrantsRepo(),
		records: mem.NewRecordRepo(),
	}
}

func NewRouter(opts Options) http.Handler {
	log := opts.Logger
	if log == nil {
		log = logger.Nop()
	}

	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)

	rp := newRepos(opts.DB)

	// Services por módulo
	peopleSvc := principals.NewService(rp.people)
	petLookup := pets.NewLookup(rp.pets)
	grantsSvc := accessgrants.NewService(rp.grants, petLookup, peopleSvc, log)
	engine := authz.NewEngine(petLookup, grantsSvc)
	recordsSvc := records.NewService(rp.records, engine, log)
	petsSvc := pets.NewService(rp.pets, pets.Deps{
		Authz:   engine,
		Grants:  grantsSvc,
		Owners:  peopleSvc,
		Records: recordsSvc,
		Logger:  log,
	})

	r.Use(middleware.AuthContext(opts.AuthVerifier, log))
	r.Use(middleware.RequestLog(log))
	r.Use(middleware.ResolvePrincipal(peopleSvc, log))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Get("/swagger/*", httpSwagger.WrapHandler)

	// Rutas por módulo
	principals.RegisterRoutes(r, peopleSvc, opts.TokenIssuer)
	pets.RegisterRoutes(r, petsSvc)
	accessgrants.RegisterRoutes(r, grantsSvc, peopleSvc, petLookup)
	authz.RegisterRoutes(r, engine)
	records.RegisterRoutes(r, recordsSvc)

	return r
}

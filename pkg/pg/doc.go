// Package pg bootstraps PostgreSQL access on pgx/v5.
//
// Connect opens a *pgxpool.Pool from an env-loaded Config, retrying while the
// database comes up. Migrate runs goose migrations from an fs.FS so packages
// can ship their schema embedded next to the code that queries it:
//
//	pool, err := pg.Connect(ctx, cfg)
//	if err != nil {
//	    return err
//	}
//	if err := pg.Migrate(ctx, pool, cfg, secondfactor.Migrations, "migrations", log); err != nil {
//	    return err
//	}
//
// IsDuplicateKeyError and IsNotFoundError classify driver errors.
package pg

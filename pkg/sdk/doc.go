// Package spendcap embeds the daily spending cap engine in a Go process.
//
// The client keeps holds and daily budget records in a local SQLite file.
// Connection budgets come from the same database, a Redis hash directory,
// a static map, or any ConnectionDirectory supplied by the host.
//
//	client, _ := spendcap.New(ctx,
//	    spendcap.WithSQLite("/var/lib/app/spendcap.db"),
//	    spendcap.WithStaticConnections(map[string]*uint64{"app-1": &limit}),
//	)
//	defer client.Close()
//
//	limited, _ := client.HasBudgetLimit(ctx, "app-1")
//	if limited {
//	    hold, err := client.PlaceHold(ctx, "app-1", 700, reqID, time.Minute)
//	    var ibe *spendcap.InsufficientBudgetError
//	    if errors.As(err, &ibe) {
//	        // reject the payment
//	    }
//	    // ... pay ...
//	    _ = client.CommitHold(ctx, hold.ID, &actualSats)
//	}
package spendcap

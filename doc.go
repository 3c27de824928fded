// Package notes is the Composition Root for the notes client.
//
// It connects the session store (pkg/core) with a storage adapter selected by
// URL: a hosted Supabase project over PostgREST and Realtime, or a local
// SQLite database for offline work.
//
// Features:
//
//   - **Optimistic session**: CRUD results are applied locally as soon as the backend answers.
//   - **Realtime merge**: the backend's change feed is folded into the same session.
//   - **Graceful degradation**: missing configuration or a missing notes table are states, not crashes.
//   - **Markdown mirror**: notes can be exported to and imported from a directory of Markdown files.
//
// Usage:
//
//	store, err := notes.New(os.Getenv("SUPABASE_URL"), os.Getenv("SUPABASE_KEY"),
//		notes.WithLogger(logger),
//	)
//	if err != nil {
//		return err
//	}
//	defer store.Close()
//
//	if err := store.Open(ctx); err != nil {
//		log.Println(err)
//	}
//	note, err := store.Create(ctx, core.Draft{Title: core.Text("hello")})
package notes

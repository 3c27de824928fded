// Package mirror keeps a directory of Markdown files in step with a notes
// session.
//
// Each note maps to one file: YAML frontmatter carries the id, title and
// timestamps, and the body is the note content.
//
//	---
//	id: 0190f7c2-...
//	title: Groceries
//	created_at: 2024-05-01T08:00:00Z
//	updated_at: 2024-05-01T09:30:00Z
//	---
//	milk, eggs
//
// Export writes files, Import reads them back into the session (updating notes
// whose id is known and creating the rest), and Watch re-imports files as they
// change on disk.
package mirror

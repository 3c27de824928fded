package supabase

// SchemaSQL is the DDL expected by this adapter. It is run by an operator in the
// project's SQL editor; PostgREST cannot create tables.
const SchemaSQL = `create table if not exists public.notes (
  id uuid primary key default gen_random_uuid(),
  title text not null default '',
  content text not null default '',
  created_at timestamptz not null default now(),
  updated_at timestamptz not null default now()
);

create index if not exists notes_updated_at_idx on public.notes (updated_at desc);

alter publication supabase_realtime add table public.notes;
`

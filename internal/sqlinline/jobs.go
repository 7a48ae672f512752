package sqlinline

const QCreateJobsTable = `--sql 0d6b3c1e-5f0e-4d8b-9a63-2f7d9c1b4e10
create table if not exists hunyuan_jobs (
    job_id     text primary key,
    edition    text not null default '',
    status     text not null,
    files      jsonb not null default '[]'::jsonb,
    error      jsonb,
    request_id text,
    created_at timestamptz not null default now(),
    updated_at timestamptz not null default now()
);
`

const QAddJobsEditionColumn = `--sql 3e5b7d91-2c4a-4f68-a0d1-9b8c6e4f2a17
alter table hunyuan_jobs add column if not exists edition text not null default '';
`

const QUpsertJob = `--sql 7c2e9a4b-3d1f-4b6e-8f25-1a9c0e7d5b32
insert into hunyuan_jobs (job_id, status, files, error, request_id, updated_at, edition)
values ($1::text, $2::text, $3::jsonb, $4::jsonb, nullif($5::text, ''), coalesce($6::timestamptz, now()), $7::text)
on conflict (job_id) do update set
    edition    = excluded.edition,
    status     = excluded.status,
    files      = excluded.files,
    error      = excluded.error,
    request_id = excluded.request_id,
    updated_at = excluded.updated_at;
`

const QSelectJob = `--sql 4a8f1d6c-9b2e-4c7a-b5d3-6e0f2a1c8d94
select job_id, status, files, error, coalesce(request_id, ''), updated_at, edition
from hunyuan_jobs
where job_id = $1::text;
`

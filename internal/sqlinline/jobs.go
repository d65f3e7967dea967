package sqlinline

const QInsertJob = `--sql 875c3747-30d9-4e82-8094-bf9c99636971
insert into jobs (id, original_filename, stored_filename, media_path, status, uploader_country)
values ($1::uuid, $2, $3, $4, $5, $6)
returning created_at, updated_at;
`

const QSelectJob = `--sql bbf6cdee-0a64-4a08-8148-e97f28a94e27
select
  id::text,
  original_filename,
  stored_filename,
  media_path,
  status,
  error_message,
  transcript_id::text,
  question_ids::text[],
  uploader_country,
  created_at,
  updated_at
from jobs
where id = $1::uuid;
`

// QTransitionJob only matches when the stored status equals $2.
const QTransitionJob = `--sql 8b81296d-e37f-40a3-8f4f-d6f6560f5897
update jobs
set status = $3,
    error_message = coalesce($4, error_message),
    updated_at = now()
where id = $1::uuid
  and status = $2;
`

const QJobExists = `--sql 0976a481-c292-4c66-8f2b-27328345e79d
select exists(select 1 from jobs where id = $1::uuid);
`

const QAttachTranscript = `--sql badfc06f-c6b2-4210-9dc6-6b47e53e9dcf
update jobs
set transcript_id = $2::uuid,
    updated_at = now()
where id = $1::uuid;
`

const QCompleteJob = `--sql 7a86892e-695a-4bb1-ab12-601cfc851f7f
update jobs
set status = 'completed',
    question_ids = $2::text[]::uuid[],
    updated_at = now()
where id = $1::uuid
  and status = 'generating_mcqs';
`

const QListStaleJobs = `--sql 16abc38e-5e8b-41a9-ab93-ee12ea7ec75b
select id::text
from jobs
where status = $1
  and updated_at < now() - make_interval(secs => $2)
order by created_at asc
limit $3;
`

const QCountJobsByStatus = `--sql 4eaa3a78-af15-490e-9679-32fc220eff83
select status, count(*)::int
from jobs
group by status;
`

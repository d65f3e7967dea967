package sqlinline

const QInsertTranscript = `--sql 158a3297-675a-499d-bfa2-8c3441481260
insert into transcripts (id, job_id, full_text, segments)
values ($1::uuid, $2::uuid, $3, $4::jsonb)
returning created_at;
`

const QSelectTranscriptByJob = `--sql fe7d6a92-9813-4e21-9719-5a6cbcedab1a
select id::text, job_id::text, full_text, segments, created_at
from transcripts
where job_id = $1::uuid;
`

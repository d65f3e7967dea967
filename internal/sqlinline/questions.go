package sqlinline

const QInsertQuestion = `--sql 8016394d-fb70-44c8-b78d-b5123e846718
insert into questions (id, job_id, position, segment_start_time, segment_end_time, question, options, correct_answer)
values ($1::uuid, $2::uuid, $3, $4, $5, $6, $7::text[], $8)
returning created_at;
`

const QListQuestionsByJob = `--sql e2820196-cecc-4ad8-8237-7c17b400e14b
select
  id::text,
  job_id::text,
  position,
  segment_start_time,
  segment_end_time,
  question,
  options,
  correct_answer,
  created_at
from questions
where job_id = $1::uuid
order by position asc;
`

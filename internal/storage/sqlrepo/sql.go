package sqlrepo

// Statements are written with '?' placeholders and rebound per driver by sqlx.

// dialect holds the statements whose upsert syntax differs between engines.
type dialect struct {
	upsertCompany string
	upsertReview  string
	linkDept      string
	insertMiss    string
}

var mysqlDialect = dialect{
	upsertCompany: `
INSERT INTO companies (id, name)
VALUES (?, ?)
ON DUPLICATE KEY UPDATE name = VALUES(name)
`,
	// Note: `date` is a keyword in MySQL; keep it quoted.
	upsertReview: "INSERT INTO reviews\n" +
		"  (company_id, source_hash, content, cleaned_text, `date`, likes, positive, score)\n" +
		"VALUES (?, ?, ?, ?, ?, ?, ?, ?)\n" +
		"ON DUPLICATE KEY UPDATE\n" +
		"  content      = VALUES(content),\n" +
		"  cleaned_text = VALUES(cleaned_text),\n" +
		"  `date`       = COALESCE(VALUES(`date`), reviews.`date`),\n" +
		"  likes        = VALUES(likes),\n" +
		"  positive     = COALESCE(VALUES(positive), reviews.positive),\n" +
		"  score        = COALESCE(VALUES(score), reviews.score)\n",
	linkDept: `
INSERT IGNORE INTO review_department (review_id, department_id)
SELECT r.id, d.id
FROM reviews r
JOIN department d ON d.name = ?
WHERE r.source_hash = ?
`,
	insertMiss: `
INSERT INTO ingest_misses (company_id, reason)
VALUES (?, ?)
ON DUPLICATE KEY UPDATE seen_at = CURRENT_TIMESTAMP
`,
}

var postgresDialect = dialect{
	upsertCompany: `
INSERT INTO companies (id, name)
VALUES (?, ?)
ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name
`,
	upsertReview: `
INSERT INTO reviews
  (company_id, source_hash, content, cleaned_text, date, likes, positive, score)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (source_hash) DO UPDATE SET
  content      = EXCLUDED.content,
  cleaned_text = EXCLUDED.cleaned_text,
  date         = COALESCE(EXCLUDED.date, reviews.date),
  likes        = EXCLUDED.likes,
  positive     = COALESCE(EXCLUDED.positive, reviews.positive),
  score        = COALESCE(EXCLUDED.score, reviews.score)
`,
	linkDept: `
INSERT INTO review_department (review_id, department_id)
SELECT r.id, d.id
FROM reviews r
JOIN department d ON d.name = ?
WHERE r.source_hash = ?
ON CONFLICT DO NOTHING
`,
	insertMiss: `
INSERT INTO ingest_misses (company_id, reason)
VALUES (?, ?)
ON CONFLICT (company_id, reason) DO UPDATE SET seen_at = CURRENT_TIMESTAMP
`,
}

// -----------------------------------------------------------------------------
// READ QUERIES (portable)
// -----------------------------------------------------------------------------

const getCompanySQL = `SELECT id, name FROM companies WHERE id = ?`

const listCompaniesSQL = `SELECT id, name FROM companies ORDER BY id`

const getDepartmentSQL = `SELECT id, name, description FROM department WHERE id = ?`

// Newest first; ties by id so repeated reads list rows identically.
const companyReviewsSQL = `
SELECT
  r.id,
  r.company_id,
  c.name AS company_name,
  r.content,
  r.cleaned_text,
  r.date,
  r.likes,
  r.positive,
  r.score
FROM reviews r
JOIN companies c ON c.id = r.company_id
WHERE r.company_id = ?
ORDER BY r.date DESC, r.id
`

const departmentReviewsSQL = `
SELECT
  r.id,
  r.company_id,
  c.name AS company_name,
  r.content,
  r.cleaned_text,
  r.date,
  r.likes,
  r.positive,
  r.score
FROM reviews r
JOIN companies c ON c.id = r.company_id
JOIN review_department rd ON rd.review_id = r.id
WHERE rd.department_id = ? AND r.company_id = ?
ORDER BY r.date DESC, r.id
`

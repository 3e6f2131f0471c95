package repository

const selectEmployeeSQL = `
SELECT id, name, email, telegram_id, is_active, created_at
FROM employees
WHERE telegram_id = $1;
`

const insertEmployeeSQL = `
INSERT INTO employees (name, email, telegram_id, is_active, created_at)
VALUES ($1, NULL, $2, TRUE, $3)
RETURNING id, name, email, telegram_id, is_active, created_at;
`

const updateEmployeeEmailSQL = `
UPDATE employees
SET email = $2
WHERE telegram_id = $1
RETURNING id, name, email, telegram_id, is_active, created_at;
`

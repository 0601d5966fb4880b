package readstore

import (
	sq "github.com/Masterminds/squirrel"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

var activeStatuses = []string{"pending", "confirmed"}

package ingest

import (
	"context"
	"fmt"

	"emperror.dev/errors"
	qdb "github.com/questdb/go-questdb-client/v3"
)

// Conf builds the client configuration string for a QuestDB server. Rows are
// only ever sent by an explicit flush.
func Conf(protocol, host string, port int) string {
	return fmt.Sprintf("%s::addr=%s:%d;auto_flush=off;", protocol, host, port)
}

type questDB struct {
	sender qdb.LineSender
}

// QuestDB is a Dialer for the InfluxDB Line Protocol endpoint of a QuestDB
// server.
func QuestDB(ctx context.Context, conf string) (Sink, error) {
	sender, err := qdb.LineSenderFromConf(ctx, conf)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return &questDB{sender: sender}, nil
}

func (q *questDB) Write(ctx context.Context, rows []Row) error {
	for _, r := range rows {
		s := q.sender.Table(r.Table)
		for _, sym := range r.Symbols {
			s = s.Symbol(sym.Name, sym.Value)
		}
		for _, c := range r.Columns {
			switch c.Kind {
			case StringColumn:
				s = s.StringColumn(c.Name, c.String)
			case FloatColumn:
				s = s.Float64Column(c.Name, c.Float)
			case IntColumn:
				s = s.Int64Column(c.Name, c.Int)
			}
		}
		if err := s.At(ctx, r.Timestamp); err != nil {
			return errors.Wrapf(err, "ingest: failed to buffer row for table %s", r.Table)
		}
	}
	if err := q.sender.Flush(ctx); err != nil {
		return errors.Wrap(err, "ingest: failed to flush rows")
	}
	return nil
}

func (q *questDB) Close(ctx context.Context) error {
	return q.sender.Close(ctx)
}

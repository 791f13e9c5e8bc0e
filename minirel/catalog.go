package minirel

import (
	"bufio"
	"io"
	"path/filepath"
	"strings"
	"sync"

	"golang.org/x/exp/slices"
)

// TableItem is one entry in the Catalog: a table's name, its backing
// file, and its (optional) primary key column.
type TableItem struct {
	Name       string
	File       *HeapFile
	PrimaryKey string
}

// Catalog maps tableId to TableItem and is the only way a BufferPool or
// operator resolves a table name or PageId.TableId into its backing
// HeapFile. Tables are added at runtime; a name collision is last-write
// wins. Safe for concurrent readers.
type Catalog struct {
	mu     sync.RWMutex
	byId   map[int32]*TableItem
	byName map[string]int32
}

// NewCatalog returns an empty Catalog.
func NewCatalog() *Catalog {
	return &Catalog{
		byId:   make(map[int32]*TableItem),
		byName: make(map[string]int32),
	}
}

// AddTable registers file under name with the given primary key column
// (empty if none). A second call with the same name replaces the
// mapping (last write wins); the old file's id entry is left in byId,
// unreachable by name but still resolvable by a PageId that names it.
func (c *Catalog) AddTable(name string, file *HeapFile, primaryKey string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := file.id()
	c.byId[id] = &TableItem{Name: name, File: file, PrimaryKey: primaryKey}
	c.byName[name] = id
}

// FileForTableId resolves a PageId.TableId to its owning DBFile.
func (c *Catalog) FileForTableId(id int32) (DBFile, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	item, ok := c.byId[id]
	if !ok {
		return nil, newDbError(NoSuchTable, "no table registered with id %d", id)
	}
	return item.File, nil
}

// TableByName resolves a table name to its TableItem.
func (c *Catalog) TableByName(name string) (*TableItem, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	id, ok := c.byName[name]
	if !ok {
		return nil, newDbError(NoSuchTable, "no table named %q", name)
	}
	return c.byId[id], nil
}

// Names returns every currently registered table name, sorted
// lexicographically so callers (and tests) see a stable order despite
// the underlying map having none.
func (c *Catalog) Names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, 0, len(c.byName))
	for name := range c.byName {
		out = append(out, name)
	}
	slices.Sort(out)
	return out
}

// parseSchemaLine parses one catalog schema line of the form
// "TableName (col type[, col type ...])", where a type token is "int"
// or "string" (case-insensitive) and a trailing " pk" on a column marks
// it the table's primary key. The grammar is this one line form and
// nothing more, so the parser stays literal rather than growing into a
// general tokenizer.
func parseSchemaLine(line string) (name string, fields []FieldType, primaryKey string, err error) {
	open := strings.IndexByte(line, '(')
	close := strings.LastIndexByte(line, ')')
	if open < 0 || close < 0 || close < open {
		return "", nil, "", newDbError(MalformedDataError, "schema line missing parens: %q", line)
	}
	name = strings.TrimSpace(line[:open])
	if name == "" {
		return "", nil, "", newDbError(MalformedDataError, "schema line missing table name: %q", line)
	}
	body := line[open+1 : close]
	cols := strings.Split(body, ",")
	for _, col := range cols {
		col = strings.TrimSpace(col)
		if col == "" {
			return "", nil, "", newDbError(MalformedDataError, "schema line %q has an empty column", line)
		}
		isPk := false
		if strings.HasSuffix(strings.ToLower(col), " pk") {
			isPk = true
			col = strings.TrimSpace(col[:len(col)-3])
		}
		parts := strings.Fields(col)
		if len(parts) != 2 {
			return "", nil, "", newDbError(MalformedDataError, "malformed column %q in line %q", col, line)
		}
		fname, ftypeTok := parts[0], strings.ToLower(parts[1])
		var ftype DBType
		switch ftypeTok {
		case "int":
			ftype = IntType
		case "string":
			ftype = StringType
		default:
			return "", nil, "", newDbError(MalformedDataError, "unknown type %q in line %q", ftypeTok, line)
		}
		fields = append(fields, FieldType{Fname: fname, Ftype: ftype})
		if isPk {
			primaryKey = fname
		}
	}
	if len(fields) == 0 {
		return "", nil, "", newDbError(MalformedDataError, "schema line %q declares no columns", line)
	}
	return name, fields, primaryKey, nil
}

// LoadSchema reads one table declaration per line from r, opens a
// HeapFile named "<table>.dat" under dataDir for each, and registers
// them all in a fresh Catalog wired to bp. An invalid line aborts the
// whole load; blank lines are skipped.
func LoadSchema(r io.Reader, dataDir string, bp *BufferPool) (*Catalog, error) {
	cat := NewCatalog()
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		name, fields, pk, err := parseSchemaLine(line)
		if err != nil {
			return nil, err
		}
		desc := &TupleDesc{Fields: fields}
		path := filepath.Join(dataDir, name+".dat")
		file, err := NewHeapFile(path, desc, bp)
		if err != nil {
			return nil, err
		}
		cat.AddTable(name, file, pk)
	}
	if err := scanner.Err(); err != nil {
		return nil, wrapIoError("reading schema", err)
	}
	bp.SetCatalog(cat)
	return cat, nil
}

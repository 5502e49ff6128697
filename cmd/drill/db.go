package main

import (
	"fmt"
	"os"

	"github.com/mb0/drill/arch"
	"github.com/mb0/drill/arch/archmem"
	"github.com/mb0/drill/arch/archpgx"
	"github.com/mb0/drill/srv"
	"github.com/mb0/xelf/cor"
)

// backend serves reports and enumerates the stored report names.
type backend interface {
	srv.Source
	Keys() ([]string, error)
}

func dbDSN() string {
	db := *dbFlag
	if db == "" {
		db = os.Getenv("DRILL_DB")
	}
	return db
}

// source opens the configured report source, the db when a connection string
// is set, otherwise the dataset archive at the dir path.
func source() (backend, error) {
	if dsn := dbDSN(); dsn != "" {
		return database(dsn)
	}
	d, err := arch.ReadDataset(*dirFlag)
	if err != nil {
		return nil, err
	}
	defer d.Close()
	return archmem.New(d)
}

func database(dsn string) (*archpgx.Backend, error) {
	db, err := archpgx.Open(dsn, nil)
	if err != nil {
		return nil, err
	}
	err = archpgx.CreateSchema(db)
	if err != nil {
		return nil, err
	}
	return archpgx.New(db), nil
}

func vers(args []string) error {
	src, err := source()
	if err != nil {
		return err
	}
	mf, err := src.Versions()
	if err != nil {
		return err
	}
	printVers(mf)
	return nil
}

func printVers(mf arch.Manifest) {
	for _, v := range mf {
		fmt.Printf("%-12s v%-3d %s %s\n", v.Name, v.Vers,
			v.Date.Format("2006-01-02 15:04"), short(v.Hash))
	}
}

func short(hash string) string {
	if len(hash) > 12 {
		return hash[:12]
	}
	return hash
}

func dump(args []string) error {
	if len(args) == 0 {
		return cor.Error("missing dataset target path")
	}
	src, err := source()
	if err != nil {
		return err
	}
	d, err := readAll(src)
	if err != nil {
		return err
	}
	return arch.WriteDataset(args[0], d)
}

// readAll collects all reports of src as materialized dataset.
func readAll(src backend) (*arch.Dataset, error) {
	keys, err := src.Keys()
	if err != nil {
		return nil, err
	}
	mf, err := src.Versions()
	if err != nil {
		return nil, err
	}
	d := &arch.Dataset{Manifest: mf}
	for _, key := range keys {
		c, err := src.Collection(key)
		if err != nil {
			return nil, err
		}
		c, err = arch.Materialize(src, c)
		if err != nil {
			return nil, err
		}
		d.Streams = append(d.Streams, &arch.MemStream{Report: key, Col: c})
	}
	return d, nil
}

func load(args []string) error {
	if len(args) == 0 {
		return cor.Error("missing dataset source path")
	}
	dsn := dbDSN()
	if dsn == "" {
		return cor.Error("load requires a db, set the -db flag or DRILL_DB")
	}
	b, err := database(dsn)
	if err != nil {
		return err
	}
	d, err := arch.ReadDataset(args[0])
	if err != nil {
		return err
	}
	defer d.Close()
	for _, s := range d.Streams {
		c, err := s.Spans()
		if err != nil {
			return err
		}
		err = b.Save(s.Name(), c)
		if err != nil {
			return err
		}
		fmt.Printf("%s loaded\n", s.Name())
	}
	return nil
}

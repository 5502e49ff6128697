package main

import (
	"fmt"
	"html"
	"io"
	"log"
	"strings"

	"github.com/mb0/drill/sel"
	"github.com/peterh/liner"
)

const replUsage = `repl commands:
   ls                         list report names
   vers                       display the report manifest
   get <report> [<key>]       print a report collection or single span table
   sel <report> <query>...    look up rows by label paths like 'a>b>c',
                              use %20 for spaces inside labels
   help                       display this help message
   exit                       quit the repl
`

func repl(args []string) error {
	src, err := source()
	if err != nil {
		return err
	}
	r := sel.Resolver{Clean: html.EscapeString, Load: src}
	lin := liner.NewLiner()
	defer lin.Close()
	lin.SetMultiLineMode(true)
	var got string
	for i := 0; ; i++ {
		if i == 0 {
			got, err = lin.PromptWithSuggestion("> ", "sel ", 4)
		} else {
			got, err = lin.Prompt("> ")
		}
		if err != nil {
			if err == io.EOF {
				fmt.Println()
				return nil
			}
			log.Printf("unexpected error reading prompt: %v", err)
			continue
		}
		fs := strings.Fields(got)
		if len(fs) == 0 {
			continue
		}
		lin.AppendHistory(got)
		switch fs[0] {
		case "exit", "q":
			return nil
		case "help":
			fmt.Print(replUsage)
		case "ls":
			keys, err := src.Keys()
			if err != nil {
				log.Printf("error listing reports: %v", err)
				continue
			}
			for _, key := range keys {
				fmt.Println(key)
			}
		case "vers":
			mf, err := src.Versions()
			if err != nil {
				log.Printf("error reading manifest: %v", err)
				continue
			}
			printVers(mf)
		case "get":
			if len(fs) < 2 {
				log.Printf("usage: get <report> [<key>]")
				continue
			}
			var res interface{}
			var err error
			if len(fs) > 2 {
				res, err = src.Table(fs[1], fs[2])
			} else {
				res, err = src.Collection(fs[1])
			}
			if err != nil {
				log.Printf("error reading %s: %v", fs[1], err)
				continue
			}
			fmt.Printf("= %s\n\n", res)
		case "sel":
			if len(fs) < 3 {
				log.Printf("usage: sel <report> <query>...")
				continue
			}
			c, err := src.Collection(fs[1])
			if err != nil {
				log.Printf("error reading %s: %v", fs[1], err)
				continue
			}
			res, err := r.Resolve(c, "", fs[2:]...)
			if err != nil {
				log.Printf("error resolving %s: %v", got, err)
				continue
			}
			fmt.Printf("= %s\n\n", res)
		default:
			log.Printf("unknown command %s, try help", fs[0])
		}
	}
}

// Package rpttest has canned report fixtures and helpers for testing.
package rpttest

import (
	"strings"

	"github.com/mb0/drill/rpt"
)

// PagesRaw is a small page hierarchy report with nested sub-tables.
const PagesRaw = `{name:'pages' rows:[
	{label:'blog' cols:{hits:120 visits:80} sub:{name:'pages' rows:[
		{label:'2019' cols:{hits:70 visits:48} sub:{name:'pages' rows:[
			{label:'review' cols:{hits:30 visits:20}}
			{label:'outlook' cols:{hits:40 visits:28}}
		]}}
		{label:'2020' cols:{hits:50 visits:32}}
	]}}
	{label:'docs' cols:{hits:98 visits:61} sub:{name:'pages' rows:[
		{label:'api' cols:{hits:44 visits:30}}
		{label:'guide' cols:{hits:42 visits:25} sub:{name:'pages' rows:[
			{label:'install' cols:{hits:21 visits:13}}
			{label:'deploy' cols:{hits:33 visits:17}}
		]}}
		{label:'user guide' cols:{hits:12 visits:6}}
	]}}
	{label:'M&amp;A' cols:{hits:7 visits:5}}
	{label:'index' cols:{hits:210 visits:130}}
]}`

// TitlesRaw is a flat title report whose stored labels carry one leading space.
const TitlesRaw = `{name:'titles' rows:[
	{label:' Home' cols:{hits:99}}
	{label:' Pricing' cols:{hits:31}}
	{label:' About' cols:{hits:17}}
]}`

// MonthsRaw is a two month collection where the promo page only occurs in the
// second month.
const MonthsRaw = `[
	{per:{key:'2020-01-01' start:'2020-01-01' label:'January 2020'} tab:{name:'pages' rows:[
		{label:'index' cols:{hits:64}}
	]}}
	{per:{key:'2020-02-01' start:'2020-02-01' label:'February 2020'} tab:{name:'pages' rows:[
		{label:'index' cols:{hits:70}}
		{label:'promo' cols:{hits:25} sub:{name:'pages' rows:[
			{label:'signup' cols:{hits:9}}
		]}}
	]}}
]`

func Pages() (*rpt.Table, error)      { return rpt.Read(strings.NewReader(PagesRaw)) }
func Titles() (*rpt.Table, error)     { return rpt.Read(strings.NewReader(TitlesRaw)) }
func Months() (rpt.Collection, error) { return rpt.ReadCollection(strings.NewReader(MonthsRaw)) }

func Must(t *rpt.Table, err error) *rpt.Table {
	if err != nil {
		panic(err)
	}
	return t
}

func MustCol(c rpt.Collection, err error) rpt.Collection {
	if err != nil {
		panic(err)
	}
	return c
}

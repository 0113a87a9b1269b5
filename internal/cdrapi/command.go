package cdrapi

import (
	"encoding/xml"
	"fmt"

	"github.com/ternarybob/cdr-admin-test/internal/common"
)

// SaveOptions controls how a document is stored.
type SaveOptions struct {
	ID          interface{} // existing document to replace; nil creates a new one
	Title       string
	Unlock      bool // check the document in after saving
	Block       bool // mark the document inactive
	Version     bool // create a new version
	Publishable bool // the new version is publishable; implies Version
	Validate    bool // run server-side validation
	Comment     string
}

// MappingOptions controls a new external mapping.
type MappingOptions struct {
	Usage string      // defaults to DefaultMappingUsage
	DocID interface{} // optional document the value maps to
}

// DefaultMappingUsage is the usage for glossary phrase mappings.
const DefaultMappingUsage = "GlossaryTerm Phrases"

type commandSet struct {
	XMLName   xml.Name  `xml:"CdrCommandSet"`
	SessionID string    `xml:"SessionId"`
	Commands  []command `xml:"CdrCommand"`
}

type command struct {
	AddDoc     *saveDoc        `xml:"CdrAddDoc,omitempty"`
	RepDoc     *saveDoc        `xml:"CdrRepDoc,omitempty"`
	AddMapping *addExternalMap `xml:"CdrAddExternalMapping,omitempty"`
}

type saveDoc struct {
	CheckIn  string      `xml:"CheckIn"`
	Version  versionFlag `xml:"Version"`
	Validate string      `xml:"Validate"`
	Reason   string      `xml:"Reason,omitempty"`
	Doc      cdrDoc      `xml:"CdrDoc"`
}

type versionFlag struct {
	Publishable string `xml:"Publishable,attr"`
	Value       string `xml:",chardata"`
}

type cdrDoc struct {
	Type string `xml:"Type,attr"`
	ID   string `xml:"Id,attr,omitempty"`
	Ctl  docCtl `xml:"CdrDocCtl"`
	XML  docXML `xml:"CdrDocXml"`
}

type docCtl struct {
	Title        string `xml:"DocTitle,omitempty"`
	Comment      string `xml:"DocComment,omitempty"`
	ActiveStatus string `xml:"DocActiveStatus,omitempty"`
}

type docXML struct {
	Data string `xml:",cdata"`
}

type addExternalMap struct {
	Usage string `xml:"Usage"`
	Value string `xml:"Value"`
	CdrID string `xml:"CdrId,omitempty"`
}

func yn(flag bool) string {
	if flag {
		return "Y"
	}
	return "N"
}

// BuildSaveCommand returns the XML envelope that creates (or, when
// opts.ID is set, replaces) a document of the given type.
func BuildSaveCommand(session, docXMLText, doctype string, opts SaveOptions) ([]byte, error) {
	save := &saveDoc{
		CheckIn:  yn(opts.Unlock),
		Version:  versionFlag{Publishable: yn(opts.Publishable), Value: yn(opts.Version || opts.Publishable)},
		Validate: yn(opts.Validate),
		Reason:   opts.Comment,
		Doc: cdrDoc{
			Type: doctype,
			Ctl: docCtl{
				Title:   opts.Title,
				Comment: opts.Comment,
			},
			XML: docXML{Data: docXMLText},
		},
	}
	if opts.Block {
		save.Doc.Ctl.ActiveStatus = "I"
	}

	var cmd command
	if opts.ID != nil {
		id, err := common.NormalizeID(opts.ID)
		if err != nil {
			return nil, fmt.Errorf("invalid document id: %w", err)
		}
		save.Doc.ID = id
		cmd.RepDoc = save
	} else {
		cmd.AddDoc = save
	}
	return marshalCommands(session, cmd)
}

// BuildMappingCommand returns the XML envelope that adds an external
// mapping for value.
func BuildMappingCommand(session, value string, opts MappingOptions) ([]byte, error) {
	usage := opts.Usage
	if usage == "" {
		usage = DefaultMappingUsage
	}
	mapping := &addExternalMap{Usage: usage, Value: value}
	if opts.DocID != nil {
		id, err := common.NormalizeID(opts.DocID)
		if err != nil {
			return nil, fmt.Errorf("invalid document id: %w", err)
		}
		mapping.CdrID = id
	}
	return marshalCommands(session, command{AddMapping: mapping})
}

func marshalCommands(session string, cmds ...command) ([]byte, error) {
	set := commandSet{SessionID: session, Commands: cmds}
	body, err := xml.Marshal(set)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal command set: %w", err)
	}
	return append([]byte(xml.Header), body...), nil
}

// Copyright (c) Gabriel de Quadros Ligneul
// SPDX-License-Identifier: Apache-2.0 (see LICENSE)

// This package contains a client for the reports exposed by the reader
// GraphQL API of a Cartesi Rollups node.
package readerclient

// Input metadata returned alongside a single report.
type Input struct {
	Typename    string `json:"__typename"`
	Index       int    `json:"index"`
	Status      string `json:"status"`
	MsgSender   string `json:"msgSender"`
	Timestamp   string `json:"timestamp"`
	BlockNumber string `json:"blockNumber"`
}

// InputRef identifies the input a report belongs to.
type InputRef struct {
	Index int `json:"index"`
}

// Report is the full report object returned by the get-by-indices query.
// The payload is a hex string as emitted by the application.
type Report struct {
	Typename string `json:"__typename"`
	Index    int    `json:"index"`
	Payload  string `json:"payload"`
	Input    Input  `json:"input"`
}

// PartialReport is the projection returned by the list queries. It never
// carries fields beyond this set, regardless of the server response shape.
type PartialReport struct {
	Typename string   `json:"__typename"`
	Index    int      `json:"index"`
	Payload  string   `json:"payload"`
	Input    InputRef `json:"input"`
}

type ReportEdge struct {
	Node *PartialReport `json:"node"`
}

type ReportConnection struct {
	Edges []ReportEdge `json:"edges"`
}

//
// Response envelopes for the three reader queries
//

type reportsData struct {
	Reports *ReportConnection `json:"reports"`
}

type reportsByInputData struct {
	Input *struct {
		Reports *ReportConnection `json:"reports"`
	} `json:"input"`
}

type reportData struct {
	Report *Report `json:"report"`
}

// nodes flattens a connection, dropping null nodes instead of propagating
// them to the caller.
func (c *ReportConnection) nodes() []PartialReport {
	if c == nil {
		return []PartialReport{}
	}
	reports := make([]PartialReport, 0, len(c.Edges))
	for _, edge := range c.Edges {
		if edge.Node == nil {
			continue
		}
		reports = append(reports, *edge.Node)
	}
	return reports
}

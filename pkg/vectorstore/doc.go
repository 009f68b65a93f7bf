// Package vectorstore builds and queries a small documentation corpus for
// retrieval-augmented answers.
//
// A Factory crawls a set of documentation URLs with a Loader, writes the
// concatenated corpus to llms_full.txt, splits every document into token
// windows and embeds the chunks into a persistent chromem collection. A
// QueryHelper opens the same directory and answers similarity queries;
// RetrieveTool exposes it to agents as the "retrieve" tool.
package vectorstore

// Copyright (c) 2025 Sprocket
// Licensed under the MIT License. See LICENSE file in the project root for details.

/*
Package mock provides an in-memory reply.ResultSets for tests.

	rs := mock.New(
		mock.Set{Columns: []string{"status"}, Rows: [][]any{{"ERR_NOTFOUND"}}},
		mock.Set{Columns: []string{"code", "text"}, Rows: [][]any{{"E1", "not found"}}},
	)
	_, _, err := reply.New(nil).Gate(rs)
*/
package mock

package cgen

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nalgeon/be"

	"github.com/strager/anno2c/sexy"
)

func TestGoldenCases(t *testing.T) {
	testFiles, err := filepath.Glob("testdata/*.md")
	be.Err(t, err, nil)
	be.True(t, len(testFiles) > 0)

	for _, testFile := range testFiles {
		testName := strings.TrimSuffix(filepath.Base(testFile), ".md")

		t.Run(testName, func(t *testing.T) {
			content, err := os.ReadFile(testFile)
			be.Err(t, err, nil)

			testCases, err := sexy.ExtractTestCases(string(content))
			be.Err(t, err, nil)
			be.True(t, len(testCases) > 0)

			for _, tc := range testCases {
				t.Run(tc.Name, func(t *testing.T) {
					if err := CheckCase(tc, Options{}); err != nil {
						t.Errorf("%s:%d: %v", testFile, tc.Line, err)
					}
				})
			}
		})
	}
}

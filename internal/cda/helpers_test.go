package cda

import (
	"archive/zip"
	"bytes"
	"hash/crc32"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"
)

const testHeader = "TP_FUNDO;CNPJ_FUNDO;DENOM_SOCIAL;DT_COMPTC;VL_PATRIM_LIQ;TP_APLIC;TP_ATIVO;VL_MERC_POS_FINAL;TP_TITPUB;QT_POS_FINAL;COLUNA_NOVA"

const (
	fundA = "11.111.111/0001-11"
	fundB = "22.222.222/0001-22"
)

type testMember struct {
	name    string
	lines   []string
	corrupt bool // stored with a bad checksum so reading it fails
}

// buildArchive writes Latin-1 encoded members into an in-memory ZIP.
func buildArchive(t *testing.T, members ...testMember) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for _, m := range members {
		text := strings.Join(m.lines, "\r\n") + "\r\n"
		encoded, err := charmap.ISO8859_1.NewEncoder().String(text)
		require.NoError(t, err)
		data := []byte(encoded)

		if m.corrupt {
			fw, err := w.CreateRaw(&zip.FileHeader{
				Name:               m.name,
				Method:             zip.Store,
				CRC32:              crc32.ChecksumIEEE(data) + 1,
				CompressedSize64:   uint64(len(data)),
				UncompressedSize64: uint64(len(data)),
			})
			require.NoError(t, err)
			_, err = fw.Write(data)
			require.NoError(t, err)
			continue
		}

		fw, err := w.Create(m.name)
		require.NoError(t, err)
		_, err = fw.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return buf.Bytes()
}

// row builds a line matching testHeader.
func row(fund, name, date, nav, category, mv, titpub string) string {
	return strings.Join([]string{"FI", fund, name, date, nav, category, "Ativo", mv, titpub, "10", "x"}, ";")
}

// scenarioArchive is the March 2024 fixture: fund A holds A=100 and B=50 with
// NAV 200 across two member tables; fund B has one unrelated row.
func scenarioArchive(t *testing.T) []byte {
	return buildArchive(t,
		testMember{name: "cda_fi_BLC_1_202403.csv", lines: []string{
			testHeader,
			row(fundA, "FUNDO AÇÕES", "2024-03-31", "200", "A", "100", ""),
			row(fundB, "OUTRO FUNDO", "2024-03-31", "1000", "A", "999", ""),
		}},
		testMember{name: "cda_fi_BLC_2_202403.csv", lines: []string{
			testHeader,
			row(fundA, "FUNDO AÇÕES", "2024-03-31", "200", "B", "50", ""),
		}},
	)
}

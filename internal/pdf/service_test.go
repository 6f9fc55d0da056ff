package pdf

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/a3tai/mcp-aadhaar-reader/internal/extraction"
	"github.com/a3tai/mcp-aadhaar-reader/internal/identity"
	pdferrors "github.com/a3tai/mcp-aadhaar-reader/internal/pdf/errors"
	"github.com/a3tai/mcp-aadhaar-reader/internal/pdf/pdftest"
)

const cardPassword = "RAHU1995"

func newTestService(t *testing.T, dir string) *Service {
	t.Helper()
	if dir == "" {
		dir = t.TempDir()
	}
	s, err := NewService(ServiceConfig{MaxFileSize: 1024 * 1024, Directory: dir}, nil)
	require.NoError(t, err)
	return s
}

func cardID(t *testing.T) string {
	t.Helper()
	c, err := identity.VerhoeffCheckDigit("23456789012")
	require.NoError(t, err)
	return "23456789012" + string(c)
}

func cardPDF(t *testing.T) []byte {
	t.Helper()
	id := cardID(t)
	return pdftest.Text(
		"Unique Identification Authority of India",
		"To",
		"RAHUL SHARMA",
		"ABC Chawl Road",
		"Maharashtra 400001",
		"DOB: 15/08/1995",
		"MALE",
		id[:4]+" "+id[4:8]+" "+id[8:]+" VID : 9123456789012345",
	)
}

func encryptedCardPDF(t *testing.T) []byte {
	t.Helper()
	data, err := pdftest.Encrypt(cardPDF(t), cardPassword)
	require.NoError(t, err)
	return data
}

// countingPrompter answers with password and counts how often it was asked
func countingPrompter(password string, calls *int32) PasswordPrompter {
	return PasswordPrompterFunc(func(context.Context, string) (string, error) {
		atomic.AddInt32(calls, 1)
		return password, nil
	})
}

func TestNewService(t *testing.T) {
	_, err := NewService(ServiceConfig{}, nil)
	assert.Error(t, err, "a directory is required")

	_, err = NewService(ServiceConfig{
		Directory:  t.TempDir(),
		Extraction: extraction.Options{FallbackPolicy: "sometimes"},
	}, nil)
	assert.Error(t, err)

	s := newTestService(t, "")
	assert.Equal(t, DefaultMinTextLength, s.Config().MinTextLength)
	assert.Equal(t, extraction.FallbackStrict, s.Config().Extraction.FallbackPolicy)
	assert.Equal(t, int64(1024*1024), s.GetMaxFileSize())
}

func TestExtractIdentity_Scenario(t *testing.T) {
	s := newTestService(t, "")

	result := s.ExtractIdentity(context.Background(), ExtractRequest{
		Name: "rahul.pdf", MediaType: "application/pdf", Data: cardPDF(t),
	}, nil)

	require.True(t, result.Success, "error: %s (%v)", result.Error, result.Err)
	require.NotNil(t, result.Data)
	assert.Equal(t, identity.ExtractedIdentity{
		Name:        "RAHUL SHARMA",
		DateOfBirth: "15/08/1995",
		IDNumber:    cardID(t),
		Gender:      identity.Male,
	}, *result.Data)
	assert.Empty(t, result.Error)
	assert.Equal(t, StagePrimaryExtraction, result.Stage)
	assert.Equal(t, StageDone, result.FinalStage())
	assert.Equal(t, 1, result.Pages)
	assert.False(t, result.Encrypted)
	assert.NotEmpty(t, result.RequestID)
	assert.NotEmpty(t, result.Candidates)
}

func TestExtractIdentity_Failures(t *testing.T) {
	s := newTestService(t, "")

	tests := []struct {
		name      string
		req       ExtractRequest
		wantType  pdferrors.ErrorType
		wantError string
		wantStage Stage
	}{
		{
			name:      "image upload",
			req:       ExtractRequest{Name: "card.png", MediaType: "image/png", Data: cardPDF(t)},
			wantType:  pdferrors.ErrorTypeUnsupportedFormat,
			wantError: pdferrors.MessageUnsupportedFormat,
			wantStage: StageIdle,
		},
		{
			name:      "garbage bytes",
			req:       ExtractRequest{Name: "card.pdf", Data: []byte("this is not a pdf at all")},
			wantType:  pdferrors.ErrorTypeDocumentOpen,
			wantError: pdferrors.MessageUnreadable,
			wantStage: StageOpening,
		},
		{
			name:      "empty upload",
			req:       ExtractRequest{Name: "card.pdf"},
			wantType:  pdferrors.ErrorTypeDocumentOpen,
			wantError: pdferrors.MessageUnreadable,
			wantStage: StageOpening,
		},
		{
			name:      "too little text",
			req:       ExtractRequest{Name: "card.pdf", Data: pdftest.Text("Hi")},
			wantType:  pdferrors.ErrorTypeEmptyDocument,
			wantError: pdferrors.MessageUnreadable,
			wantStage: StageReconstructed,
		},
		{
			name: "no identity",
			req: ExtractRequest{Name: "letter.pdf", Data: pdftest.Text(
				"Dear customer,", "your electricity bill is attached.")},
			wantType:  pdferrors.ErrorTypeIncompleteExtraction,
			wantError: pdferrors.MessageIncomplete,
			wantStage: StageFallbackExtraction,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := s.ExtractIdentity(context.Background(), tt.req, nil)

			require.NotNil(t, result)
			assert.False(t, result.Success)
			assert.Nil(t, result.Data)
			assert.Equal(t, tt.wantError, result.Error)
			assert.Equal(t, tt.wantType.String(), result.ErrorType)
			assert.Equal(t, tt.wantStage, result.Stage)
			assert.Equal(t, StageFailed, result.FinalStage())
			assert.Equal(t, tt.wantType, pdferrors.TypeOf(result.Err))
			assert.NotEmpty(t, result.RequestID)
		})
	}
}

func TestExtractIdentity_UnreadableMessage(t *testing.T) {
	s := newTestService(t, "")
	result := s.ExtractIdentity(context.Background(), ExtractRequest{Data: []byte("%PDF-1.4 broken")}, nil)
	assert.Contains(t, result.Error, "Unable to extract text")
}

func TestExtractIdentity_SizeLimit(t *testing.T) {
	s, err := NewService(ServiceConfig{MaxFileSize: 10, Directory: t.TempDir()}, nil)
	require.NoError(t, err)

	result := s.ExtractIdentity(context.Background(), ExtractRequest{Name: "card.pdf", Data: cardPDF(t)}, nil)
	assert.False(t, result.Success)
	assert.Equal(t, StageIdle, result.Stage)
}

func TestExtractIdentity_Password(t *testing.T) {
	s := newTestService(t, "")
	data := encryptedCardPDF(t)

	t.Run("no prompter", func(t *testing.T) {
		result := s.ExtractIdentity(context.Background(), ExtractRequest{Name: "card.pdf", Data: data}, nil)
		assert.False(t, result.Success)
		assert.Equal(t, pdferrors.MessagePassword, result.Error)
		assert.Equal(t, StageOpening, result.Stage)
		assert.True(t, errors.Is(result.Err, pdferrors.ErrPasswordRequired))
	})

	t.Run("password in request", func(t *testing.T) {
		var calls int32
		result := s.ExtractIdentity(context.Background(),
			ExtractRequest{Name: "card.pdf", Data: data, Password: cardPassword},
			countingPrompter("unused", &calls))
		require.True(t, result.Success, "error: %v", result.Err)
		assert.True(t, result.Encrypted)
		assert.Equal(t, int32(0), calls)
	})

	t.Run("prompted once", func(t *testing.T) {
		var calls int32
		result := s.ExtractIdentity(context.Background(), ExtractRequest{Name: "card.pdf", Data: data},
			countingPrompter(cardPassword, &calls))
		require.True(t, result.Success, "error: %v", result.Err)
		assert.Equal(t, "RAHUL SHARMA", result.Data.Name)
		assert.Equal(t, int32(1), calls)
	})

	t.Run("wrong password is not asked again", func(t *testing.T) {
		var calls int32
		result := s.ExtractIdentity(context.Background(), ExtractRequest{Name: "card.pdf", Data: data},
			countingPrompter("WRONG000", &calls))
		assert.False(t, result.Success)
		assert.Equal(t, pdferrors.MessagePassword, result.Error)
		assert.Equal(t, int32(1), calls)
	})

	t.Run("prompt declined", func(t *testing.T) {
		var calls int32
		result := s.ExtractIdentity(context.Background(), ExtractRequest{Name: "card.pdf", Data: data},
			countingPrompter("", &calls))
		assert.False(t, result.Success)
		assert.Equal(t, pdferrors.MessagePassword, result.Error)
		assert.Equal(t, int32(1), calls)
	})

	t.Run("prompt error", func(t *testing.T) {
		prompter := PasswordPrompterFunc(func(context.Context, string) (string, error) {
			return "", errors.New("terminal closed")
		})
		result := s.ExtractIdentity(context.Background(), ExtractRequest{Name: "card.pdf", Data: data}, prompter)
		assert.False(t, result.Success)
		assert.Equal(t, StagePasswordPrompt, result.Stage)
	})

	t.Run("static password", func(t *testing.T) {
		result := s.ExtractIdentity(context.Background(), ExtractRequest{Name: "card.pdf", Data: data},
			StaticPassword(cardPassword))
		assert.True(t, result.Success, "error: %v", result.Err)
	})
}

func TestExtractIdentity_Cancelled(t *testing.T) {
	s := newTestService(t, "")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result := s.ExtractIdentity(ctx, ExtractRequest{Name: "card.pdf", Data: cardPDF(t)}, nil)
	assert.False(t, result.Success)
	assert.True(t, errors.Is(result.Err, context.Canceled))
}

func TestExtractIdentity_UniqueRequestIDs(t *testing.T) {
	s := newTestService(t, "")
	a := s.ExtractIdentity(context.Background(), ExtractRequest{Data: []byte("x")}, nil)
	b := s.ExtractIdentity(context.Background(), ExtractRequest{Data: []byte("x")}, nil)
	assert.NotEqual(t, a.RequestID, b.RequestID)
}

func TestExtractIdentityFromFile(t *testing.T) {
	dir := t.TempDir()
	s := newTestService(t, dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "rahul.pdf"), cardPDF(t), 0o600))

	t.Run("relative path", func(t *testing.T) {
		result, err := s.ExtractIdentityFromFile(context.Background(), ExtractFileRequest{Path: "rahul.pdf"}, nil)
		require.NoError(t, err)
		require.True(t, result.Success, "error: %v", result.Err)
		assert.Equal(t, cardID(t), result.Data.IDNumber)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := s.ExtractIdentityFromFile(context.Background(), ExtractFileRequest{Path: "missing.pdf"}, nil)
		assert.Error(t, err)
	})

	t.Run("outside directory", func(t *testing.T) {
		_, err := s.ExtractIdentityFromFile(context.Background(), ExtractFileRequest{Path: "../rahul.pdf"}, nil)
		assert.Error(t, err)
	})
}

func TestService_InspectFile(t *testing.T) {
	dir := t.TempDir()
	s := newTestService(t, dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "plain.pdf"), cardPDF(t), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "locked.pdf"), encryptedCardPDF(t), 0o600))

	info, err := s.InspectFile(InspectFileRequest{Path: "plain.pdf"})
	require.NoError(t, err)
	assert.Equal(t, 1, info.PageCount)
	assert.False(t, info.Encrypted)
	assert.Equal(t, filepath.Join(dir, "plain.pdf"), info.Path)

	info, err = s.InspectFile(InspectFileRequest{Path: "locked.pdf", Password: cardPassword})
	require.NoError(t, err)
	assert.True(t, info.Encrypted)

	_, err = s.InspectFile(InspectFileRequest{Path: "nope.pdf"})
	assert.Error(t, err)
}

func TestService_ValidateNumber(t *testing.T) {
	s := newTestService(t, "")
	id := cardID(t)
	wrong := id[:11] + string('0'+(id[11]-'0'+1)%10)

	tests := []struct {
		name         string
		input        string
		wantValid    bool
		wantStruct   bool
		wantReason   string
		wantExpected string
	}{
		{name: "valid", input: id, wantValid: true, wantStruct: true},
		{name: "valid with separators", input: id[:4] + " " + id[4:8] + "-" + id[8:], wantValid: true, wantStruct: true},
		{name: "checksum", input: wrong, wantStruct: true, wantReason: "checksum mismatch", wantExpected: id[11:]},
		{name: "short", input: "12345", wantReason: "must be exactly 12 digits"},
		{name: "leading one", input: "123456789012", wantReason: "cannot start with 0 or 1"},
		{name: "repeated", input: "999999999999", wantReason: "cannot be a single repeated digit"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := s.ValidateNumber(tt.input)
			assert.Equal(t, tt.wantValid, r.Valid)
			assert.Equal(t, tt.wantStruct, r.StructureValid)
			assert.Equal(t, tt.wantValid, r.ChecksumValid)
			assert.Equal(t, tt.wantReason, r.Reason)
			assert.Equal(t, tt.wantExpected, r.ExpectedCheck)
			if tt.wantValid {
				assert.Equal(t, id[:4]+" "+id[4:8]+" "+id[8:], r.FormattedNumber)
			}
		})
	}
}

func TestMaskID(t *testing.T) {
	assert.Equal(t, "XXXX-XXXX-9012", maskID("234567899012"))
	assert.Equal(t, "", maskID("12"))
}

func TestExtractIdentity_DebugFragmentStats(t *testing.T) {
	for _, debug := range []bool{false, true} {
		core, logs := observer.New(zap.DebugLevel)
		cfg := ServiceConfig{MaxFileSize: 1024 * 1024, Directory: t.TempDir()}
		cfg.Library.DebugMode = debug

		s, err := NewService(cfg, zap.New(core))
		require.NoError(t, err)

		result := s.ExtractIdentity(context.Background(), ExtractRequest{Name: "card.pdf", Data: cardPDF(t)}, nil)
		require.True(t, result.Success, result.Error)

		entries := logs.FilterMessage("page fragments").All()
		if !debug {
			assert.Empty(t, entries)
			continue
		}

		require.Len(t, entries, 1)
		fields := entries[0].ContextMap()
		assert.EqualValues(t, 1, fields["page"])
		assert.Positive(t, fields["fragments"])
		assert.Positive(t, fields["numeric"])
		assert.Positive(t, fields["latin"])
		assert.EqualValues(t, 0, fields["devanagari"])
	}
}

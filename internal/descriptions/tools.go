package descriptions

import "sort"

// Tool names exposed by the MCP server
const (
	ToolExtract        = "aadhaar_extract"
	ToolValidateNumber = "aadhaar_validate_number"
	ToolInspectPDF     = "aadhaar_inspect_pdf"
	ToolServerInfo     = "aadhaar_server_info"
)

const (
	ExtractDescription = `Extract the holder's name, date of birth, gender and 12-digit Aadhaar number from an e-Aadhaar PDF.

**When to use:** A user has shared an Aadhaar card PDF (downloaded e-Aadhaar or a scan with a text layer) and you need the identity fields as structured data.

**Input:** Either 'path' (a file inside the server's configured directory) or 'content' (the PDF bytes, base64 encoded) together with 'name'. Downloaded e-Aadhaar files are usually password protected; pass 'password' when you know it (by convention the first four letters of the name in capitals followed by the birth year).

**Output:** A JSON object with 'success'. On success 'data' holds name, dob (DD/MM/YYYY), aadhaar (12 digits) and gender (Male, Female or "Not specified"); 'strategy' names the extraction tier that completed the record. On failure 'error' holds a user-facing message and 'stage' the pipeline state that failed.

**Examples:**
• "Read the Aadhaar details from uploads/priya-aadhaar.pdf"
• "The file is locked, the password is PRIY1990"

**Best practices:** Never echo the full Aadhaar number back unless the user asked for it. If the result says a password is required, ask the user for it and call again.`

	ValidateNumberDescription = `Check whether a 12-digit number is a structurally valid Aadhaar number.

**When to use:** A user typed an Aadhaar number by hand, or you want to double-check a number read from another source.

**Checks:** exactly 12 digits after removing spaces and hyphens, not starting with 0 or 1, not a single repeated digit, and a correct Verhoeff check digit.

**Output:** 'valid' plus the individual structure and checksum results. When only the checksum fails, 'expected_check_digit' holds the digit that would make the number valid, which usually points at a typo.

**Examples:**
• "Is 2345 6789 0124 a valid Aadhaar number?"`

	InspectPDFDescription = `Report the structure of a PDF in the configured directory without extracting identity data.

**When to use:** Extraction failed and you want to know why: the document may be encrypted, may have no pages, or may use an encryption scheme that needs a password.

**Output:** page count, PDF version, whether the file is encrypted and whether the supplied password (if any) opened it.

**Examples:**
• "Why can't you read uploads/card.pdf?"`

	ServerInfoDescription = `Get server configuration, available tools and the PDF files waiting in the configured directory.

**When to use:** At the start of a session, to discover which files can be passed to aadhaar_extract by path.

**Output:** server name and version, directory, maximum file size, fallback policy, extraction settings, tool list and up to 100 PDF files.`
)

// ToolDescriptions maps tool names to their descriptions
var ToolDescriptions = map[string]string{
	ToolExtract:        ExtractDescription,
	ToolValidateNumber: ValidateNumberDescription,
	ToolInspectPDF:     InspectPDFDescription,
	ToolServerInfo:     ServerInfoDescription,
}

// GetToolDescription returns the description for a tool
func GetToolDescription(toolName string) string {
	if desc, exists := ToolDescriptions[toolName]; exists {
		return desc
	}
	return "Tool description not available"
}

// GetAllToolNames returns all tool names, sorted
func GetAllToolNames() []string {
	names := make([]string, 0, len(ToolDescriptions))
	for name := range ToolDescriptions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

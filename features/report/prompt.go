package report

import (
	"fmt"

	"github.com/akiraid64/diabetic-rag/internal/retrieval"
)

// validationPrompt is the gating classification sent with the raw image.
// The model is asked for a bare YES/NO so the containment check in Classify
// stays robust against minor elaboration.
const validationPrompt = `Analyze this image and determine if it contains a blood test report with glucose/sugar levels.

Respond with ONLY "YES" if:
- This is a medical/lab blood test report
- Contains glucose, blood sugar, or HbA1c values

Respond with ONLY "NO" if:
- Not a medical report
- Any other type of image
- No glucose-related values present

Response (YES or NO):`

// RefusalMessage is returned verbatim when the gate rejects an image.
const RefusalMessage = `I can only analyze blood glucose/sugar reports. This image doesn't appear to be a blood test report with glucose levels.

If you have questions about diabetes management, symptoms, or general diabetes information, feel free to ask!`

// rangeContextQuery grounds the analysis in diagnostic-range passages. It is
// a fixed domain query, not the user's free-text message, so retrieval
// quality does not depend on how the question was phrased.
const rangeContextQuery = "blood glucose levels diabetes diagnosis normal range fasting random HbA1c"

const analysisPromptTemplate = `You are a medical AI assistant analyzing a blood test report for diabetes indicators.

**Context from diabetes medical document:**
%s

**Your task:**
1. Extract all visible test parameters and their values from the image
2. Identify blood glucose, blood sugar, HbA1c, or related diabetes markers
3. Compare values against normal ranges (if visible or use standard medical ranges)
4. Provide assessment based on the medical document context above
5. Give actionable recommendations from the document

**Response format:**

## 📊 Blood Report Analysis

**Test Results:**
- [Parameter name]: [Value] [Unit] (Normal range: [range])
- [Continue for all visible parameters]

**Assessment:**
[Based on the values and the medical document, explain what the results indicate about diabetes risk/status]

**Key Findings:**
- [Finding 1]
- [Finding 2]
- [Continue as needed]

**Recommendations:**
[Provide recommendations from the diabetes document based on the results]

**⚠️ Important Disclaimer:**
This is an AI-generated analysis for informational purposes only. Please consult your doctor or healthcare provider for proper medical interpretation and treatment decisions.
%s`

const questionSuffixTemplate = "\n**Your question:** %s\n\n[Answer the question based on the report and document]"

func renderAnalysisPrompt(results []retrieval.Result, message string) string {
	suffix := ""
	if message != "" {
		suffix = fmt.Sprintf(questionSuffixTemplate, message)
	}
	return fmt.Sprintf(analysisPromptTemplate, retrieval.ContextBlock(results), suffix)
}

package providers

import (
	_ "github.com/atulbakery/ishan-assistant/src/ai/gemini"
	_ "github.com/atulbakery/ishan-assistant/src/ai/openai"
)

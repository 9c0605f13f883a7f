package rag

import "strings"

const promptTemplate = `You are an AI assistant that answers questions based on the provided context from uploaded documents.

Context from the document:
{context}

Chat History:
{chat_history}

Question: {question}

Instructions:
- Answer the question using the provided context from the document
- If the context doesn't contain relevant information, say so clearly
- Be concise but comprehensive in your response
- Reference specific parts of the document when applicable
- Maintain conversation context from the chat history

Answer:`

// BuildPrompt fills the template in a single pass, so placeholder-looking
// text inside the inputs is left alone.
func BuildPrompt(context, chatHistory, question string) string {
	return strings.NewReplacer(
		"{context}", context,
		"{chat_history}", chatHistory,
		"{question}", question,
	).Replace(promptTemplate)
}

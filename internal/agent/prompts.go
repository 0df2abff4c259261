package agent

// classifyPrompt asks for {"is_research": bool}.
const classifyPrompt = `Determine if the following message is requesting information about academic research or scholarly papers.
Return a JSON object with a single key "is_research" whose value is true or false.`

// queryPrompt asks for {"search_query": "..."}.
const queryPrompt = `Extract a search query for an academic paper search engine from the following message.
Return a JSON object with a single key "search_query" containing the search terms to use.
Make the search query specific but concise (5-8 words maximum).`

// chatPrompt is used for messages that are not research questions.
const chatPrompt = "You are a helpful assistant."

// researchPrompt is used for research questions when no search query could
// be extracted.
const researchPrompt = "You are a research assistant. The user has a research query."

// groundedPrompt precedes the formatted search results.
const groundedPrompt = `You are a helpful research assistant. Answer the user's question based only on these papers.
Summarize the key findings and explain how the papers relate to the question.
Include the title, authors, year, number of citations, and URL of each paper you discuss.
Keep the answer concise. Do not fabricate paper titles, authors, or citation counts; use only information included in the search results.

`

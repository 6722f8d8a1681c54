package readerclient

// The query documents below are an external contract owned by the reader
// API. The client only binds the arguments and reads the selected fields.

const reportsQuery = `query reports {
    reports {
        edges {
            node {
                __typename
                index
                payload
                input {
                    index
                }
            }
        }
    }
}`

const reportsByInputQuery = `query reportsByInput($inputIndex: Int!) {
    input(index: $inputIndex) {
        reports {
            edges {
                node {
                    __typename
                    index
                    payload
                    input {
                        index
                    }
                }
            }
        }
    }
}`

const reportQuery = `query report($inputIndex: Int!, $reportIndex: Int!) {
    report(reportIndex: $reportIndex, inputIndex: $inputIndex) {
        __typename
        index
        payload
        input {
            __typename
            index
            status
            msgSender
            timestamp
            blockNumber
        }
    }
}`
